package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordNotConfigured = errors.New("admin password hash not configured")

const (
	PrincipalSession  = "session"
	PrincipalIdentity = "identity"
)

// Principal is whoever passed the admin gate.
type Principal struct {
	Method  string `json:"method"`
	Subject string `json:"subject,omitempty"`
	Email   string `json:"email,omitempty"`
}

type PasswordVerifier struct {
	hash []byte
}

func NewPasswordVerifier(hash string) *PasswordVerifier {
	return &PasswordVerifier{hash: []byte(hash)}
}

// Verify reports whether password matches the configured bcrypt hash.
func (v *PasswordVerifier) Verify(password string) (bool, error) {
	if len(v.hash) == 0 {
		return false, ErrPasswordNotConfigured
	}
	err := bcrypt.CompareHashAndPassword(v.hash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare password: %w", err)
	}
	return true, nil
}

type IdentityConfig struct {
	Issuer        string
	Audience      string
	HMACSecret    string
	PublicKeyPEM  string
	CookieName    string
	AllowedEmails []string
}

type identityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IdentityVerifier checks ID tokens minted by the external identity provider
// and applies the admin email allow-list.
type IdentityVerifier struct {
	keyFunc    jwt.Keyfunc
	methods    []string
	options    []jwt.ParserOption
	cookieName string
	allowed    map[string]struct{}
}

func NewIdentityVerifier(cfg IdentityConfig) (*IdentityVerifier, error) {
	v := &IdentityVerifier{
		cookieName: cfg.CookieName,
		allowed:    make(map[string]struct{}, len(cfg.AllowedEmails)),
	}
	if v.cookieName == "" {
		v.cookieName = "id_token"
	}
	for _, e := range cfg.AllowedEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			v.allowed[e] = struct{}{}
		}
	}

	switch {
	case cfg.PublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse identity provider public key: %w", err)
		}
		v.keyFunc = func(*jwt.Token) (interface{}, error) { return key, nil }
		v.methods = []string{"RS256", "RS384", "RS512"}
	case cfg.HMACSecret != "":
		secret := []byte(cfg.HMACSecret)
		v.keyFunc = func(*jwt.Token) (interface{}, error) { return secret, nil }
		v.methods = []string{"HS256"}
	}

	v.options = append(v.options, jwt.WithValidMethods(v.methods), jwt.WithExpirationRequired())
	if cfg.Issuer != "" {
		v.options = append(v.options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		v.options = append(v.options, jwt.WithAudience(cfg.Audience))
	}
	return v, nil
}

func (v *IdentityVerifier) Enabled() bool {
	return v != nil && v.keyFunc != nil
}

func (v *IdentityVerifier) CookieName() string { return v.cookieName }

// IsAllowedUser applies the allow-list. An empty list admits any
// authenticated email.
func (v *IdentityVerifier) IsAllowedUser(email string) bool {
	if email == "" {
		return false
	}
	if len(v.allowed) == 0 {
		return true
	}
	_, ok := v.allowed[strings.ToLower(email)]
	return ok
}

// Verify validates the token and returns the principal it names.
func (v *IdentityVerifier) Verify(raw string) (*Principal, error) {
	if !v.Enabled() || raw == "" {
		return nil, ErrUnauthorized
	}

	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, v.keyFunc, v.options...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !v.IsAllowedUser(claims.Email) {
		return nil, fmt.Errorf("%w: %q is not an allowed admin", ErrUnauthorized, claims.Email)
	}

	return &Principal{Method: PrincipalIdentity, Subject: claims.Subject, Email: claims.Email}, nil
}

// AdminGate is the single admin check used by every protected endpoint. A
// live password session or an allow-listed identity token both qualify.
type AdminGate struct {
	sessions *SessionService
	identity *IdentityVerifier
}

func NewAdminGate(sessions *SessionService, identity *IdentityVerifier) *AdminGate {
	return &AdminGate{sessions: sessions, identity: identity}
}

func (g *AdminGate) Authorize(ctx context.Context, r *http.Request) (*Principal, error) {
	bearer := BearerToken(r)

	if g.sessions != nil {
		token := bearer
		if token == "" {
			token = cookieValue(r, SessionCookieName)
		}
		if g.sessions.Validate(ctx, token) {
			return &Principal{Method: PrincipalSession}, nil
		}
	}

	if g.identity.Enabled() {
		token := cookieValue(r, g.identity.CookieName())
		if token == "" {
			token = bearer
		}
		if p, err := g.identity.Verify(token); err == nil {
			return p, nil
		}
	}

	return nil, ErrUnauthorized
}

// SessionToken returns the admin session token presented with r, if any.
func SessionToken(r *http.Request) string {
	if t := BearerToken(r); t != "" {
		return t
	}
	return cookieValue(r, SessionCookieName)
}

func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
