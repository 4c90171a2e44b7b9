package handler

import (
	"github.com/aigate/backend/internal/application/gateway"
	"github.com/aigate/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GenerateHandler relays prompts through the quota-aware gateway
type GenerateHandler struct {
	BaseHandler
	gateway *gateway.Gateway
	logger  *zap.Logger
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(gw *gateway.Gateway, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{gateway: gw, logger: logger}
}

// GenerateRequest is the body of POST /generate
type GenerateRequest struct {
	Prompt  string         `json:"prompt"`
	Model   string         `json:"model" binding:"omitempty,max=100"`
	Options map[string]any `json:"options"`
}

// Generate handles POST /generate. The response is newline-delimited JSON: an
// optional quota warning frame followed by the generator's content frames.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	caller := gateway.Caller{}
	if claims := middleware.GetSessionClaims(c); claims != nil {
		caller = gateway.Caller{AccountID: claims.AccountID, Role: claims.Role, Attributed: true}
	}

	result, err := h.gateway.Generate(c.Request.Context(), gateway.GenerateInput{
		Caller:  caller,
		Prompt:  req.Prompt,
		Model:   req.Model,
		Options: req.Options,
	}, newResponseStream(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Debug("Generation finished",
		zap.Int64("account_id", caller.AccountID),
		zap.Bool("completed", result.Completed),
		zap.Bool("charged", result.Charged),
		zap.Int64("bytes", result.Bytes),
	)
}
