package handler

import (
	"errors"
	"net/http"

	"github.com/aigate/backend/internal/domain/shared"
	"github.com/aigate/backend/internal/infrastructure/logger"
	"github.com/aigate/backend/internal/interfaces/http/dto"
	"github.com/aigate/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// BaseHandler provides common handler utilities
type BaseHandler struct {
	// ExposeDetails attaches the underlying error text to error responses
	ExposeDetails bool
}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a 200 success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 invalid input response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, shared.CodeInvalidInput, message)
}

// HandleError converts domain errors to HTTP responses. Unknown errors become SERVER_ERROR.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code, message := shared.CodeServerError, shared.ErrServer.Message
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code, message = domainErr.Code, domainErr.Message
	}

	resp := dto.NewErrorResponseWithRequestID(code, message, getRequestID(c))
	if h.ExposeDetails {
		resp = resp.WithDetails(err.Error())
	}
	_ = c.Error(err)
	c.JSON(dto.GetHTTPStatus(code), resp)
}
