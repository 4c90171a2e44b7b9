package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Issuer:     "test-issuer",
		Expiration: 7 * 24 * time.Hour,
	}
}

func TestSessionService_RoundTrip(t *testing.T) {
	svc := NewSessionService(testJWTConfig())

	identities := []Identity{
		{AccountID: 1, Email: "a@x.com", Role: account.RoleStandard},
		{AccountID: 42, Email: "admin@admin.com", Role: account.RolePrivileged},
	}

	for _, id := range identities {
		t.Run(id.Email, func(t *testing.T) {
			token, expiresAt, err := svc.Issue(id)
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, 5*time.Second)

			claims, err := svc.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, id, claims.Identity())
			assert.Equal(t, "test-issuer", claims.Issuer)
			assert.NotEmpty(t, claims.ID)
		})
	}
}

func TestSessionService_Expiry(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	svc := NewSessionService(testJWTConfig(), WithClock(func() time.Time { return now }))

	token, _, err := svc.Issue(Identity{AccountID: 7, Email: "a@x.com", Role: account.RoleStandard})
	require.NoError(t, err)

	now = issuedAt.Add(7*24*time.Hour - time.Minute)
	_, err = svc.Verify(token)
	assert.NoError(t, err, "valid just before expiry")

	now = issuedAt.Add(7*24*time.Hour + time.Minute)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestSessionService_RejectsTampering(t *testing.T) {
	svc := NewSessionService(testJWTConfig())
	token, _, err := svc.Issue(Identity{AccountID: 1, Email: "a@x.com", Role: account.RoleStandard})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		cfg := testJWTConfig()
		cfg.Secret = "another-secret-key-at-least-32-chars"
		other := NewSessionService(cfg)

		_, err := other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("modified signature", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		tampered := parts[0] + "." + parts[1] + "." + string(sig)

		_, err := svc.Verify(tampered)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := svc.Verify("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := svc.Verify("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		cfg := testJWTConfig()
		cfg.Issuer = "someone-else"
		other := NewSessionService(cfg)

		_, err := other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned algorithm", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			AccountID: 1,
			Email:     "a@x.com",
			Role:      account.RolePrivileged,
		}
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Verify(none)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestSessionService_RejectsIncompleteClaims(t *testing.T) {
	svc := NewSessionService(testJWTConfig())

	token, _, err := svc.Issue(Identity{AccountID: 0, Email: "a@x.com", Role: account.RoleStandard})
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestSessionService_MissingSecret(t *testing.T) {
	svc := NewSessionService(config.JWTConfig{Expiration: time.Hour})

	_, _, err := svc.Issue(Identity{AccountID: 1, Email: "a@x.com", Role: account.RoleStandard})
	assert.ErrorIs(t, err, ErrMissingSecret)
}
