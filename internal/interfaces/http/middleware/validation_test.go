package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aigate/backend/internal/interfaces/http/dto"
	"github.com/aigate/backend/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentialsInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/auth/register", func(c *gin.Context) {
		var req credentialsInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("reports json field names", func(t *testing.T) {
		w := post(`{"email": "invalid", "password": "short"}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := testutil.DecodeJSONAs[dto.Response](t, w.Body.Bytes())
		require.NotNil(t, resp.Error)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		assert.NotEmpty(t, resp.Error.RequestID)
		assert.ElementsMatch(t, []dto.ValidationDetail{
			{Field: "email", Message: "Invalid email format"},
			{Field: "password", Message: "Must be at least 8 characters"},
		}, resp.Error.ValidationErrors)
	})

	t.Run("malformed json has no field details", func(t *testing.T) {
		w := post(`{"email":`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := testutil.DecodeJSONAs[dto.Response](t, w.Body.Bytes())
		assert.Empty(t, resp.Error.ValidationErrors)
	})

	t.Run("valid input passes", func(t *testing.T) {
		w := post(`{"email": "a@example.com", "password": "longenough"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		Email    string `validate:"omitempty,email"`
		MinStr   string `validate:"min=5"`
		MaxStr   string `validate:"max=3"`
		MinInt   int    `validate:"min=2"`
		OneOf    string `validate:"oneof=user admin"`
		GT       int    `validate:"gt=0"`
		GTE      int    `validate:"gte=10"`
		Len      string `validate:"len=2"`
	}

	err := validator.New().Struct(sample{
		Email:  "nope",
		MinStr: "ab",
		MaxStr: "abcdef",
		OneOf:  "root",
		Len:    "abc",
	})
	require.Error(t, err)

	got := map[string]string{}
	for _, fe := range err.(validator.ValidationErrors) {
		got[fe.Field()] = getValidationMessage(fe)
	}

	assert.Equal(t, map[string]string{
		"Required": "This field is required",
		"Email":    "Invalid email format",
		"MinStr":   "Must be at least 5 characters",
		"MaxStr":   "Must be at most 3 characters",
		"MinInt":   "Must be at least 2",
		"OneOf":    "Must be one of: user admin",
		"GT":       "Must be greater than 0",
		"GTE":      "Must be greater than or equal to 10",
		"Len":      "Invalid value",
	}, got)
}
