package api

// Session-cookie login for the control plane. Sessions live in the
// database so they survive restarts.

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tonylu00/bili-sync-sub002/internal/auth"
)

const sessionCookieName = "session_token"

// sessionLifetime bounds how long a login stays valid; the session
// cleanup job removes expired rows server-side.
const sessionLifetime = 7 * 24 * time.Hour

func sessionCookie(r *http.Request, token string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Expires:  expires,
		MaxAge:   maxAge,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// Same rejection for a wrong password and an unknown user, so the
	// login form can't be used to probe for account names.
	user, err := s.store.GetUserByUsername(payload.Username)
	if err != nil || !auth.CheckPasswordHash(payload.Password, user.PasswordHash) {
		RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := s.store.CreateSession(user.ID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	http.SetCookie(w, sessionCookie(r, token, time.Now().Add(sessionLifetime), 0))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.store.DeleteSession(cookie.Value)
	}
	http.SetCookie(w, sessionCookie(r, "", time.Unix(0, 0), -1))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	RespondWithJSON(w, http.StatusOK, user)
}
