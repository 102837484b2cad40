package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tgienger/apolo/internal/models"
)

// ErrNoSession means nothing is stored on disk
var ErrNoSession = errors.New("no session")

// Claims is the session token payload
type Claims struct {
	jwt.RegisteredClaims
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

// User returns the user the claims describe
func (c *Claims) User() models.User {
	return models.User{ID: c.Subject, Name: c.Name, Email: c.Email, AvatarURL: c.AvatarURL}
}

// NewToken signs a session token for u
func NewToken(secret []byte, u models.User, provider string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("no secret configured")
	}
	now := time.Now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    "apolo",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Provider:  provider,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a session token
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	if len(secret) == 0 {
		return nil, errors.New("no secret configured")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithIssuer("apolo"))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// SessionStore keeps the signed session token in a private file
type SessionStore struct {
	path   string
	secret []byte
	ttl    time.Duration
}

// NewSessionStore stores tokens at path. An empty secret is replaced by a
// random key kept next to the session file.
func NewSessionStore(path, secret string, ttl time.Duration) (*SessionStore, error) {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	s := &SessionStore{path: path, ttl: ttl, secret: []byte(secret)}
	if len(s.secret) == 0 {
		key, err := loadOrCreateKey(path + ".key")
		if err != nil {
			return nil, fmt.Errorf("session key: %w", err)
		}
		s.secret = key
	}
	return s, nil
}

func loadOrCreateKey(path string) ([]byte, error) {
	if b, err := os.ReadFile(path); err == nil {
		key, err := hex.DecodeString(strings.TrimSpace(string(b)))
		if err == nil && len(key) >= 32 {
			return key, nil
		}
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0600); err != nil {
		return nil, err
	}
	return key, nil
}

// Save signs and stores a session for u
func (s *SessionStore) Save(u models.User, provider string) error {
	tok, err := NewToken(s.secret, u, provider, s.ttl)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(tok), 0600)
}

// Load returns the stored session's claims; expired or tampered tokens are
// errors, a missing file is ErrNoSession
func (s *SessionStore) Load() (*Claims, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return ParseToken(strings.TrimSpace(string(b)), s.secret)
}

// Clear removes the stored session
func (s *SessionStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
