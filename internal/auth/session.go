// Package auth signs and verifies the employee session carried in the
// "user" cookie.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/csg33k/billed/internal/domain"
)

var validate = validator.New()

// Claims is the session record {type, email} plus the registered claims.
type Claims struct {
	Type  domain.UserType `json:"type"`
	Email string          `json:"email"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates HS256 session tokens.
type SessionManager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewSessionManager(secretKey string, ttl time.Duration) *SessionManager {
	return &SessionManager{secretKey: []byte(secretKey), ttl: ttl, now: time.Now}
}

// TTL is how long a token stays valid.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Generate signs s. An invalid session yields domain.ErrInvalidSession.
func (m *SessionManager) Generate(s domain.Session) (string, error) {
	if err := validate.Struct(s); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}
	now := m.now()
	claims := &Claims{
		Type:  s.Type,
		Email: s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

// Validate verifies the signature and expiry of token and returns the session
// it carries.
func (m *SessionManager) Validate(token string) (domain.Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Session{}, domain.ErrInvalidSession
	}
	s := domain.Session{Type: claims.Type, Email: claims.Email}
	if err := validate.Struct(s); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}
	return s, nil
}

// IsInvalid reports whether err is a rejected session.
func IsInvalid(err error) bool { return errors.Is(err, domain.ErrInvalidSession) }
