package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aigate/backend/internal/domain/shared"
	"github.com/aigate/backend/internal/infrastructure/logger"
	"github.com/aigate/backend/internal/interfaces/http/dto"
	"github.com/aigate/backend/internal/interfaces/http/middleware"
	"github.com/aigate/backend/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*gin.Context)
		expected string
	}{
		{
			name:     "from context",
			setup:    func(c *gin.Context) { c.Set(logger.GinRequestIDKey, "ctx-id") },
			expected: "ctx-id",
		},
		{
			name:     "from header when context empty",
			setup:    func(c *gin.Context) { c.Request.Header.Set(middleware.RequestIDHeader, "header-id") },
			expected: "header-id",
		},
		{
			name: "context wins",
			setup: func(c *gin.Context) {
				c.Set(logger.GinRequestIDKey, "ctx-id")
				c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
			},
			expected: "ctx-id",
		},
		{
			name:     "empty",
			setup:    func(*gin.Context) {},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodGet, "/")
			tt.setup(c)
			assert.Equal(t, tt.expected, getRequestID(c))
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expose     bool
		wantStatus int
		wantCode   string
		wantMsg    string
		wantDetail string
	}{
		{
			name:       "domain error",
			err:        shared.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   shared.CodeNotFound,
			wantMsg:    "Not found.",
		},
		{
			name:       "wrapped domain error",
			err:        fmt.Errorf("lookup: %w", shared.ErrDuplicateIdentity),
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeDuplicateIdentity,
			wantMsg:    "Email already registered.",
		},
		{
			name:       "unknown error hides cause",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   shared.CodeServerError,
			wantMsg:    "Internal server error.",
		},
		{
			name:       "details exposed outside production",
			err:        shared.WrapDomainError(shared.CodeUpstreamError, "Failed to generate response", errors.New("dial tcp: refused")),
			expose:     true,
			wantStatus: http.StatusInternalServerError,
			wantCode:   shared.CodeUpstreamError,
			wantMsg:    "Failed to generate response",
			wantDetail: "Failed to generate response: dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext(http.MethodGet, "/")
			c.Set(logger.GinRequestIDKey, "req-1")
			h := BaseHandler{ExposeDetails: tt.expose}

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := testutil.DecodeJSONAs[dto.Response](t, w.Body.Bytes())
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			assert.Equal(t, tt.wantDetail, resp.Error.Details)
			assert.Len(t, c.Errors, 1)
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newContext(http.MethodGet, "/")
		(&BaseHandler{}).HandleError(c, nil)
		assert.Empty(t, w.Body.Bytes())
	})
}

func TestBaseHandler_Responses(t *testing.T) {
	h := &BaseHandler{}

	c, w := newContext(http.MethodGet, "/")
	h.Created(c, gin.H{"id": 1})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(1), testutil.AssertSuccessResponse(t, w.Body.Bytes())["id"])

	c, w = newContext(http.MethodGet, "/")
	h.BadRequest(c, "Invalid user ID.")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errBody := testutil.AssertErrorResponse(t, w.Body.Bytes(), shared.CodeInvalidInput)
	assert.Equal(t, "Invalid user ID.", errBody["message"])
}
