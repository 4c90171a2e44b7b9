package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingSecret    = errors.New("session secret is empty")
)

// Claims is the payload of a session credential
type Claims struct {
	jwt.RegisteredClaims
	AccountID int64        `json:"id"`
	Email     string       `json:"email"`
	Role      account.Role `json:"role"`
}

// Identity is what a verified credential attests to
type Identity struct {
	AccountID int64
	Email     string
	Role      account.Role
}

// Identity returns the identity carried by the claims
func (c *Claims) Identity() Identity {
	return Identity{
		AccountID: c.AccountID,
		Email:     c.Email,
		Role:      c.Role,
	}
}

// ExpiresAtTime returns the credential expiry as time.Time
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// SessionService issues and verifies signed, stateless session credentials (HS256 JWT).
// Verification never touches storage.
type SessionService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// SessionOption configures a SessionService
type SessionOption func(*SessionService)

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) {
		s.now = now
	}
}

// NewSessionService creates a new session service
func NewSessionService(cfg config.JWTConfig, opts ...SessionOption) *SessionService {
	s := &SessionService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: cfg.Expiration,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a credential for the identity with the configured validity window
func (s *SessionService) Issue(id Identity) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}

	now := s.now()
	expiresAt := now.Add(s.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(id.AccountID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		AccountID: id.AccountID,
		Email:     id.Email,
		Role:      id.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify validates signature, structure and expiry and returns the claims
func (s *SessionService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.AccountID <= 0 || claims.Email == "" || !claims.Role.IsValid() {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}

// Expiration returns the credential validity window
func (s *SessionService) Expiration() time.Duration {
	return s.expiration
}
