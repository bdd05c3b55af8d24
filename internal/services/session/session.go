// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session issues and verifies stateless session tokens. A token is
// a securecookie value carrying the user ID and the issue time, signed with
// HMAC-SHA256 under a key derived from the configured secret and optionally
// encrypted with AES. No session state is kept on the server.
package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/godfactor/internal/config"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

// DefaultCookieName is used when the configuration leaves it empty.
const DefaultCookieName = "session_token"

// DefaultMaxAge is the token and cookie lifetime when none is configured.
const DefaultMaxAge = 30 * 24 * time.Hour

// clockSkew is how far in the future an issue time may lie.
const clockSkew = time.Minute

var ErrNoSecret = errors.New("session secret must not be empty")

// payload is the signed token content.
type payload struct {
	UserID   int64 `json:"uid"`
	IssuedAt int64 `json:"iat"`
}

// Manager issues and verifies session tokens and builds the cookies that
// carry them.
type Manager struct {
	codec      *securecookie.SecureCookie
	cookieName string
	maxAge     time.Duration
	secure     bool
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the time source used to stamp and check tokens.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager from the session configuration.
func NewManager(cfg *config.SessionConfig, opts ...Option) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}

	hashKey, err := deriveKey(cfg.Secret, "godfactor session hash key", 64)
	if err != nil {
		return nil, fmt.Errorf("derive session hash key: %w", err)
	}

	var blockKey []byte
	if cfg.Encrypt {
		blockKey, err = deriveKey(cfg.Secret, "godfactor session block key", 32)
		if err != nil {
			return nil, fmt.Errorf("derive session block key: %w", err)
		}
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	// Expiry is checked against the issue time in the payload.
	codec.MaxAge(0)

	m := &Manager{
		codec:      codec,
		cookieName: cfg.CookieName,
		maxAge:     time.Duration(cfg.MaxAge) * time.Second,
		secure:     cfg.Secure,
		now:        time.Now,
	}
	if m.cookieName == "" {
		m.cookieName = DefaultCookieName
	}
	if m.maxAge <= 0 {
		m.maxAge = DefaultMaxAge
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func deriveKey(secret, info string, size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, err
	}
	return key, nil
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// MaxAge returns how long a token stays valid.
func (m *Manager) MaxAge() time.Duration {
	return m.maxAge
}

// Issue returns a token for userID stamped with the current time.
func (m *Manager) Issue(userID int64) (string, error) {
	return m.codec.Encode(m.cookieName, payload{
		UserID:   userID,
		IssuedAt: m.now().Unix(),
	})
}

// Verify returns the user ID bound to token. It reports false for malformed
// or tampered tokens, tokens signed under another secret, and tokens older
// than the max age.
func (m *Manager) Verify(token string) (int64, bool) {
	if token == "" {
		return 0, false
	}

	var p payload
	if err := m.codec.Decode(m.cookieName, token, &p); err != nil {
		return 0, false
	}
	if p.UserID <= 0 {
		return 0, false
	}

	issued := time.Unix(p.IssuedAt, 0)
	now := m.now()
	if issued.After(now.Add(clockSkew)) {
		return 0, false
	}
	if now.Sub(issued) > m.maxAge {
		return 0, false
	}

	return p.UserID, true
}

// Cookie wraps a token in the session cookie.
func (m *Manager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.maxAge / time.Second),
		Expires:  m.now().Add(m.maxAge),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Create issues a token for userID and returns it as a session cookie.
func (m *Manager) Create(userID int64) (*http.Cookie, error) {
	token, err := m.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	return m.Cookie(token), nil
}

// Clear returns a cookie that removes the session cookie from the browser.
func (m *Manager) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// TokenFromRequest returns the session token carried by r, if any.
func (m *Manager) TokenFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
