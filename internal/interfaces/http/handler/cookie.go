package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/aigate/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
)

// SessionCookie writes and clears the HTTP-only session cookie
type SessionCookie struct {
	cfg config.CookieConfig
}

// NewSessionCookie creates a cookie writer, defaulting the name to authToken and the path to /
func NewSessionCookie(cfg config.CookieConfig) SessionCookie {
	if cfg.Name == "" {
		cfg.Name = "authToken"
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return SessionCookie{cfg: cfg}
}

// Name returns the cookie name
func (s SessionCookie) Name() string {
	return s.cfg.Name
}

// Set stores token for maxAge
func (s SessionCookie) Set(c *gin.Context, token string, maxAge time.Duration) {
	s.write(c, token, int(maxAge.Seconds()))
}

// Clear expires the cookie immediately
func (s SessionCookie) Clear(c *gin.Context) {
	s.write(c, "", -1)
}

func (s SessionCookie) write(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(sameSiteMode(s.cfg.SameSite))
	c.SetCookie(s.cfg.Name, value, maxAge, s.cfg.Path, s.cfg.Domain, s.cfg.Secure, true)
}

func sameSiteMode(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
