package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"
)

const (
	SessionCookieName = "admin_session"
	SessionDuration   = 24 * time.Hour

	insecureFallbackSecret = "insecure-fallback-secret"
)

// SessionStore maps hashed session tokens to their expiry.
type SessionStore interface {
	Put(ctx context.Context, hash string, expiresAt time.Time) error
	Get(ctx context.Context, hash string) (time.Time, bool, error)
	Delete(ctx context.Context, hash string) error
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// SessionService issues opaque admin tokens. Only an HMAC of each token is
// kept, so a leaked store cannot be replayed.
type SessionService struct {
	store  SessionStore
	secret []byte
	now    func() time.Time
}

// NewSessionService falls back to the admin password hash when no dedicated
// secret is configured.
func NewSessionService(store SessionStore, secret, adminPasswordHash string) *SessionService {
	if secret == "" {
		log.Println("SESSION_SECRET not set, deriving session hashes from ADMIN_PASSWORD_HASH")
		secret = adminPasswordHash
	}
	if secret == "" {
		log.Println("WARNING: no session secret available, using an insecure fallback")
		secret = insecureFallbackSecret
	}
	return &SessionService{store: store, secret: []byte(secret), now: time.Now}
}

func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

func (s *SessionService) Create(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	now := s.now()
	if err := s.store.Put(ctx, s.hash(token), now.Add(SessionDuration)); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	if _, err := s.store.Sweep(ctx, now); err != nil {
		log.Printf("Failed to sweep expired sessions: %v", err)
	}

	return token, nil
}

// Validate fails closed: empty, unknown, expired tokens and store errors all
// report false.
func (s *SessionService) Validate(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	hash := s.hash(token)
	expiresAt, ok, err := s.store.Get(ctx, hash)
	if err != nil {
		log.Printf("Session lookup failed: %v", err)
		return false
	}
	if !ok {
		return false
	}
	if expiresAt.Before(s.now()) {
		if err := s.store.Delete(ctx, hash); err != nil {
			log.Printf("Failed to evict expired session: %v", err)
		}
		return false
	}
	return true
}

func (s *SessionService) Invalidate(ctx context.Context, token string) error {
	return s.store.Delete(ctx, s.hash(token))
}

func (s *SessionService) Sweep(ctx context.Context) (int, error) {
	return s.store.Sweep(ctx, s.now())
}

func (s *SessionService) hash(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
