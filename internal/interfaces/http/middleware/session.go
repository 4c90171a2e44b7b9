package middleware

import (
	"crypto/subtle"
	"errors"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/domain/shared"
	"github.com/aigate/backend/internal/infrastructure/auth"
	"github.com/aigate/backend/internal/infrastructure/logger"
	"github.com/aigate/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Session context keys
const (
	SessionClaimsKey = "session_claims"
	SessionRoleKey   = "session_role"
	SessionRejected  = "session_rejected"
	DefaultCookie    = "authToken"
)

// SessionConfig holds configuration for the session middleware
type SessionConfig struct {
	// Service verifies session credentials
	Service *auth.SessionService
	// CookieName is the cookie carrying the credential
	CookieName string
	// Logger for middleware logging
	Logger *zap.Logger
}

func (cfg SessionConfig) cookieName() string {
	if cfg.CookieName == "" {
		return DefaultCookie
	}
	return cfg.CookieName
}

func (cfg SessionConfig) log() *zap.Logger {
	if cfg.Logger == nil {
		return zap.NewNop()
	}
	return cfg.Logger
}

// SessionAuth requires a valid session cookie.
// A missing cookie yields 401 CREDENTIAL_MISSING; a bad or expired one 403 CREDENTIAL_INVALID.
func SessionAuth(cfg SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.cookieName())
		if err != nil || token == "" {
			abortWithError(c, shared.ErrCredentialMissing)
			return
		}

		claims, err := cfg.Service.Verify(token)
		if err != nil {
			cfg.log().Warn("Session verification failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			abortWithError(c, shared.ErrCredentialInvalid)
			return
		}

		attachClaims(c, claims)
		c.Next()
	}
}

// OptionalSession attaches identity when a valid session cookie is present.
// Missing or invalid credentials never abort; an invalid one is flagged under SessionRejected.
func OptionalSession(cfg SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.cookieName())
		if err == nil && token != "" {
			if claims, err := cfg.Service.Verify(token); err == nil {
				attachClaims(c, claims)
			} else {
				c.Set(SessionRejected, true)
				cfg.log().Debug("Ignoring invalid session on optional route", zap.Error(err))
			}
		}
		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role differs from role with 403 ROLE_FORBIDDEN.
// Must run after SessionAuth.
func RequireRole(role account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetSessionClaims(c)
		if claims == nil {
			abortWithError(c, shared.ErrCredentialMissing)
			return
		}
		if claims.Role != role {
			abortWithError(c, shared.ErrRoleForbidden)
			return
		}
		c.Next()
	}
}

// APIKeyConfig holds configuration for the shared-secret gate
type APIKeyConfig struct {
	// Key is the expected secret; an empty key disables the gate
	Key string
	// Header carries the secret, default x-api-key
	Header string
	Logger *zap.Logger
}

// APIKeyGate requires the static shared secret header.
// A missing header yields 401 API_KEY_MISSING; a wrong one 403 API_KEY_INVALID.
func APIKeyGate(cfg APIKeyConfig) gin.HandlerFunc {
	header := cfg.Header
	if header == "" {
		header = "x-api-key"
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if cfg.Key == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(header)
		if provided == "" {
			abortWithError(c, shared.ErrAPIKeyMissing)
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.Key)) != 1 {
			log.Warn("Invalid API key", zap.String("path", c.Request.URL.Path), zap.String("client_ip", c.ClientIP()))
			abortWithError(c, shared.ErrAPIKeyInvalid)
			return
		}
		c.Next()
	}
}

// SessionOrAPIKey admits callers with a valid session attached by OptionalSession,
// and otherwise applies APIKeyGate. With no key configured only sessions are accepted,
// answered like SessionAuth.
func SessionOrAPIKey(cfg APIKeyConfig) gin.HandlerFunc {
	gate := APIKeyGate(cfg)
	return func(c *gin.Context) {
		if GetSessionClaims(c) != nil {
			c.Next()
			return
		}
		if cfg.Key == "" {
			if c.GetBool(SessionRejected) {
				abortWithError(c, shared.ErrCredentialInvalid)
				return
			}
			abortWithError(c, shared.ErrCredentialMissing)
			return
		}
		gate(c)
	}
}

func attachClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(SessionClaimsKey, claims)
	c.Set(logger.GinAccountIDKey, claims.AccountID)
	c.Set(SessionRoleKey, claims.Role)

	ctx, _ := logger.WithAccountID(c.Request.Context(), logger.FromContext(c.Request.Context()), claims.AccountID)
	c.Request = c.Request.WithContext(ctx)
}

// GetSessionClaims retrieves the verified session claims, or nil
func GetSessionClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(SessionClaimsKey); exists {
		if sc, ok := claims.(*auth.Claims); ok {
			return sc
		}
	}
	return nil
}

// GetAccountID returns the authenticated account ID, or 0
func GetAccountID(c *gin.Context) int64 {
	return c.GetInt64(logger.GinAccountIDKey)
}

// GetRole returns the authenticated role, or the empty role
func GetRole(c *gin.Context) account.Role {
	if role, exists := c.Get(SessionRoleKey); exists {
		if r, ok := role.(account.Role); ok {
			return r
		}
	}
	return ""
}

// abortWithError renders a domain error envelope and stops the chain
func abortWithError(c *gin.Context, err error) {
	code, message := shared.CodeServerError, shared.ErrServer.Message
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code, message = domainErr.Code, domainErr.Message
	}
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code),
		dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}
