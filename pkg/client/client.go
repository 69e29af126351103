// Package client is a small session-aware HTTP client for the portal API.
// Cookies carry the token pair, so a cookie jar is the whole session state;
// the client additionally tracks the current user so callers can render
// auth-dependent UI without a round trip.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/embassy-gov/portal-api/internal/models"
)

// Session talks to the portal API and tracks the authenticated user.
// Safe for concurrent use.
type Session struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	current *models.UserInfo
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates a session client against baseURL (e.g. "http://localhost:8080/api/v1").
func New(baseURL string) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Session{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Current returns the logged-in user, or nil when logged out.
func (s *Session) Current() *models.UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	clone := *s.current
	return &clone
}

// Register creates an account. It does not log the user in.
func (s *Session) Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	var user models.UserInfo
	if err := s.do(ctx, http.MethodPost, "/auth/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and stores the returned session cookies in the jar.
func (s *Session) Login(ctx context.Context, email, password string) (*models.UserInfo, error) {
	payload := models.LoginRequest{Email: email, Password: password}

	var user models.UserInfo
	if err := s.do(ctx, http.MethodPost, "/auth/login", payload, &user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()
	return &user, nil
}

// Refresh renews the access cookie using the refresh cookie in the jar.
// On an unauthorized response the local session state is dropped, since the
// server no longer recognizes it.
func (s *Session) Refresh(ctx context.Context) error {
	err := s.do(ctx, http.MethodPost, "/auth/refresh", nil, nil)
	if isUnauthorized(err) {
		s.clear()
	}
	return err
}

// Me fetches the current profile from the server and syncs local state.
func (s *Session) Me(ctx context.Context) (*models.UserInfo, error) {
	var user models.UserInfo
	err := s.do(ctx, http.MethodGet, "/auth/me", nil, &user)
	if err != nil {
		if isUnauthorized(err) {
			s.clear()
		}
		return nil, err
	}

	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()
	return &user, nil
}

// Logout ends the session. Local state is always cleared, even when the
// server call fails; the server endpoint is itself best-effort.
func (s *Session) Logout(ctx context.Context) error {
	err := s.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	s.clear()
	return err
}

func (s *Session) clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if jar, err := cookiejar.New(nil); err == nil {
		s.httpClient.Jar = jar
	}
}

func isUnauthorized(err error) bool {
	apiErr, ok := err.(*apiError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

func (s *Session) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if env.Error != nil {
		if env.Error.Status == 0 {
			env.Error.Status = resp.StatusCode
		}
		return env.Error
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &apiError{Code: "UNEXPECTED", Message: resp.Status, Status: resp.StatusCode}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}
