// Package bilibili is the HTTP boundary to the remote video platform.
// It decodes the platform's JSON envelopes into neutral types and maps
// failures through the classifier in errors.go; nothing outside this
// package parses remote payloads.
package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.bilibili.com"

	userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	// Responses are small JSON documents; cap reads so a misbehaving
	// endpoint cannot balloon memory.
	maxResponseBytes = 8 << 20
)

// Page sizes are fixed by the remote endpoints, not configurable.
const (
	favoritePageSize   = 20
	collectionPageSize = 20
	submissionPageSize = 30
)

// HeaderProvider decorates outgoing requests with whatever headers the
// platform expects. Fingerprint construction stays behind this
// interface, outside the sync core.
type HeaderProvider interface {
	ApplyHeaders(req *http.Request)
}

// CredentialHeaders is the default HeaderProvider: account cookies
// plus a browser-like identity.
type CredentialHeaders struct {
	SessData   string
	BiliJct    string
	Buvid3     string
	DedeUserID string
}

func (c *CredentialHeaders) ApplyHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://www.bilibili.com")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	var cookies []string
	if c.SessData != "" {
		cookies = append(cookies, "SESSDATA="+c.SessData)
	}
	if c.BiliJct != "" {
		cookies = append(cookies, "bili_jct="+c.BiliJct)
	}
	if c.Buvid3 != "" {
		cookies = append(cookies, "buvid3="+c.Buvid3)
	}
	if c.DedeUserID != "" {
		cookies = append(cookies, "DedeUserID="+c.DedeUserID)
	}
	if len(cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(cookies, "; "))
	}
}

// Client talks to the remote platform's web API.
type Client struct {
	http    *http.Client
	base    string
	headers HeaderProvider
}

type Option func(*Client)

// WithBaseURL points the client at a different API host. Tests use
// this to target an httptest server.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = strings.TrimRight(base, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(headers HeaderProvider, opts ...Option) *Client {
	c := &Client{
		base:    defaultBaseURL,
		headers: headers,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 20 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get issues a GET and returns the raw body. Non-2xx statuses are not
// an error here; the JSON envelope carries the real status code.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, int, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	if c.headers != nil {
		c.headers.ApplyHeaders(req)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s: %w", path, err)
	}
	return body, resp.StatusCode, nil
}

// FetchBytes downloads an absolute URL (cover images mostly) with the
// client's headers applied. Not for API endpoints; those go through
// getJSON so the envelope is decoded.
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.headers != nil {
		c.headers.ApplyHeaders(req)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

// getJSON fetches path and unmarshals the envelope's data payload into
// out. A non-zero envelope code becomes an APIError; a body that is
// not the expected JSON shape becomes a ProtocolError.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, status, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &ProtocolError{Endpoint: path, Reason: fmt.Sprintf("HTTP %d, body is not valid JSON", status)}
	}
	if env.Code != 0 {
		apiErr := &APIError{Code: env.Code, Message: env.Message, Voucher: env.Voucher}
		if apiErr.Voucher == "" && len(env.Data) > 0 {
			// Some endpoints tuck the challenge token inside data.
			var d struct {
				Voucher string `json:"v_voucher"`
			}
			if json.Unmarshal(env.Data, &d) == nil {
				apiErr.Voucher = d.Voucher
			}
		}
		return apiErr
	}
	if out != nil {
		if len(env.Data) == 0 {
			return &ProtocolError{Endpoint: path, Reason: "data payload missing"}
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &ProtocolError{Endpoint: path, Reason: "data payload does not match expected shape"}
		}
	}
	return nil
}

// getPGC is getJSON for the episodic-series endpoints, which wrap
// their payload in "result" rather than "data".
func (c *Client) getPGC(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, status, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}

	var env pgcEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &ProtocolError{Endpoint: path, Reason: fmt.Sprintf("HTTP %d, body is not valid JSON", status)}
	}
	if env.Code != 0 {
		return &APIError{Code: env.Code, Message: env.Message}
	}
	if out != nil {
		if len(env.Result) == 0 {
			return &ProtocolError{Endpoint: path, Reason: "result payload missing"}
		}
		if err := json.Unmarshal(env.Result, out); err != nil {
			return &ProtocolError{Endpoint: path, Reason: "result payload does not match expected shape"}
		}
	}
	return nil
}
