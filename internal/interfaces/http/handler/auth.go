package handler

import (
	appaccount "github.com/aigate/backend/internal/application/account"
	"github.com/aigate/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Confirmation messages
const (
	msgRegistered = "User registered successfully."
	msgLoggedIn   = "Login successful."
	msgLoggedOut  = "Logout successful."
	msgDeleted    = "Account deleted successfully."
)

// AuthHandler handles registration, login and self-service account requests
type AuthHandler struct {
	BaseHandler
	authService *appaccount.AuthService
	cookie      SessionCookie
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *appaccount.AuthService, cookie SessionCookie) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), appaccount.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.cookie.Set(c, result.Token, result.CookieMaxAge)
	h.Created(c, AuthResponse{
		Message: msgRegistered,
		User:    toUserResponse(result.User),
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), appaccount.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.cookie.Set(c, result.Token, result.CookieMaxAge)
	h.Success(c, AuthResponse{
		Message: msgLoggedIn,
		User:    toUserResponse(result.User),
	})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.authService.Logout(c.Request.Context(), middleware.GetAccountID(c))
	h.cookie.Clear(c)
	h.Success(c, MessageResponse{Message: msgLoggedOut})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MeResponse{User: toUserResponse(*user)})
}

// DeleteAccount handles DELETE /auth/account
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	if err := h.authService.DeleteAccount(c.Request.Context(), middleware.GetAccountID(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.cookie.Clear(c)
	h.Success(c, MessageResponse{Message: msgDeleted})
}
