package handler

import (
	"time"

	appaccount "github.com/aigate/backend/internal/application/account"
)

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=3,max=128"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// UserResponse is the public view of an account
type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	APICalls  int64     `json:"api_calls"`
}

// AuthResponse is returned by register and login; the credential travels only in the cookie
type AuthResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// MessageResponse carries a single confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

// MeResponse wraps the current user
type MeResponse struct {
	User UserResponse `json:"user"`
}

func toUserResponse(u appaccount.UserInfo) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		APICalls:  u.APICalls,
	}
}

func toUserResponses(users []appaccount.UserInfo) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}
