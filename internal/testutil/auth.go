package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tonylu00/bili-sync-sub002/internal/api"
	"github.com/tonylu00/bili-sync-sub002/internal/auth"
)

// GetAuthCookie creates a user with the given role, logs in through
// the real login handler and returns the session cookie.
func GetAuthCookie(t *testing.T, s *api.Server, username, password, role string) *http.Cookie {
	t.Helper()

	// CreateUser stores a hash, never the plaintext password.
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password for test user: %v", err)
	}
	if _, err := s.Store().CreateUser(username, passwordHash, role); err != nil {
		t.Fatalf("Failed to create test user '%s': %v", username, err)
	}

	payload, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, _ := http.NewRequest("POST", "/api/users/login", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Login failed within test helper for user '%s': got status %d, want 200", username, rr.Code)
	}

	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == "session_token" {
			return cookie
		}
	}
	t.Fatal("No session cookie returned after successful login")
	return nil
}
