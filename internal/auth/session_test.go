package auth

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/billed/internal/domain"
)

const secret = "test-secret-0123456789abcdef"

var employee = domain.Session{Type: domain.UserEmployee, Email: "a@a"}

func TestSessionManager_RoundTrip(t *testing.T) {
	m := NewSessionManager(secret, time.Hour)

	token, err := m.Generate(employee)
	require.NoError(t, err)

	got, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, employee, got)
}

func TestSessionManager_GenerateRejectsInvalidSession(t *testing.T) {
	m := NewSessionManager(secret, time.Hour)

	for _, s := range []domain.Session{
		{Type: "Guest", Email: "a@a"},
		{Type: domain.UserEmployee, Email: "nobody"},
		{Type: domain.UserEmployee},
	} {
		_, err := m.Generate(s)
		assert.ErrorIs(t, err, domain.ErrInvalidSession, s.Email)
		assert.True(t, IsInvalid(err))
	}
}

func TestSessionManager_ValidateRejects(t *testing.T) {
	m := NewSessionManager(secret, time.Hour)
	other := NewSessionManager("another-secret-0123456789abcd", time.Hour)

	foreign, err := other.Generate(employee)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Type: domain.UserEmployee, Email: "ceo@corp.example"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	plainJSON := base64.RawURLEncoding.EncodeToString([]byte(`{"type":"Employee","email":"ceo@corp.example"}`))

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"plain json":   plainJSON,
		"other secret": foreign,
		"alg none":     unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Validate(token)
			assert.ErrorIs(t, err, domain.ErrInvalidSession)
		})
	}
}

func TestSessionManager_Expired(t *testing.T) {
	m := NewSessionManager(secret, time.Hour)
	issued := time.Date(2004, time.April, 4, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, err := m.Generate(employee)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}
