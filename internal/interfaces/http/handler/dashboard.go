package handler

import (
	appaccount "github.com/aigate/backend/internal/application/account"
	"github.com/aigate/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the per-account usage view
type DashboardHandler struct {
	BaseHandler
	dashboardService *appaccount.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *appaccount.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// UsageResponse is the quota summary. RemainingCalls is a number, or "unlimited".
type UsageResponse struct {
	APICalls       int64 `json:"api_calls"`
	Limit          int64 `json:"limit"`
	RemainingCalls any   `json:"remaining_calls"`
	LimitReached   bool  `json:"limit_reached"`
}

// DashboardResponse is the body of GET /dashboard
type DashboardResponse struct {
	User     UserResponse  `json:"user"`
	APIUsage UsageResponse `json:"api_usage"`
}

// Get handles GET /dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	result, err := h.dashboardService.Get(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, DashboardResponse{
		User: toUserResponse(result.User),
		APIUsage: UsageResponse{
			APICalls:       result.Usage.APICalls,
			Limit:          result.Usage.Limit,
			RemainingCalls: result.Usage.RemainingCalls,
			LimitReached:   result.Usage.LimitReached,
		},
	})
}
