// Package auth stores the HTTP API bearer token in the OS keychain, with a
// single-token JSON file fallback for machines without a keyring.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zalando/go-keyring"
)

// ErrNotFound is returned when no token has been stored.
var ErrNotFound = errors.New("auth: token not found")

const (
	DefaultService = "mindful-arcade"
	FallbackFile   = "api-token.json" // under the app data directory
	tokenAccount   = "api-token"
	tokenBytes     = 32
)

// TokenStore wraps the OS keychain with an optional file fallback.
type TokenStore struct {
	service      string
	fallbackPath string
	mu           sync.Mutex
}

// NewTokenStore creates a token store. fallbackPath may be empty to disable
// the file fallback.
func NewTokenStore(service, fallbackPath string) *TokenStore {
	if strings.TrimSpace(service) == "" {
		service = DefaultService
	}
	return &TokenStore{service: service, fallbackPath: fallbackPath}
}

// GenerateToken returns a random URL-safe token.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Equal compares tokens in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Get returns the stored token or ErrNotFound.
func (s *TokenStore) Get() (string, error) {
	val, err := keyring.Get(s.service, tokenAccount)
	if err == nil {
		return val, nil
	}
	if !isKeyringUnavailable(err) && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("auth: keyring get: %w", err)
	}

	fallback, ferr := s.getFallback()
	if ferr == nil {
		return fallback, nil
	}
	if errors.Is(ferr, ErrNotFound) || errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return "", ferr
}

// Set stores token.
func (s *TokenStore) Set(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("auth: token is required")
	}
	err := keyring.Set(s.service, tokenAccount, token)
	if err == nil {
		return nil
	}
	if !isKeyringUnavailable(err) {
		return fmt.Errorf("auth: keyring set: %w", err)
	}
	return s.setFallback(token)
}

// Ensure returns the stored token, generating and storing one if none exists.
// created reports whether a new token was made.
func (s *TokenStore) Ensure() (token string, created bool, err error) {
	token, err = s.Get()
	if err == nil {
		return token, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", false, err
	}
	if token, err = GenerateToken(); err != nil {
		return "", false, err
	}
	if err := s.Set(token); err != nil {
		return "", false, err
	}
	return token, true, nil
}

// Delete removes the token from the keyring and the fallback file.
func (s *TokenStore) Delete() error {
	err := keyring.Delete(s.service, tokenAccount)
	ferr := s.deleteFallback()
	if err != nil && !errors.Is(err, keyring.ErrNotFound) && !isKeyringUnavailable(err) {
		return fmt.Errorf("auth: keyring delete: %w", err)
	}
	return ferr
}

func isKeyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "no keychain") ||
		strings.Contains(msg, "keyring backend not available")
}

// tokenFile is the fallback file body. It holds a single token.
type tokenFile struct {
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *TokenStore) setFallback(token string) error {
	if strings.TrimSpace(s.fallbackPath) == "" {
		return fmt.Errorf("auth: keyring unavailable and no fallback path configured")
	}
	raw, err := json.Marshal(tokenFile{Token: token, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("auth: encode token file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.fallbackPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("auth: mkdir token dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("auth: write token file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("auth: write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("auth: write token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.fallbackPath); err != nil {
		return fmt.Errorf("auth: replace token file: %w", err)
	}
	return nil
}

func (s *TokenStore) getFallback() (string, error) {
	if strings.TrimSpace(s.fallbackPath) == "" {
		return "", ErrNotFound
	}
	s.mu.Lock()
	raw, err := os.ReadFile(s.fallbackPath)
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("auth: read token file: %w", err)
	}

	var f tokenFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return "", fmt.Errorf("auth: decode token file: %w", err)
	}
	if f.Token == "" {
		return "", ErrNotFound
	}
	return f.Token, nil
}

func (s *TokenStore) deleteFallback() error {
	if strings.TrimSpace(s.fallbackPath) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.fallbackPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("auth: remove token file: %w", err)
	}
	return nil
}
