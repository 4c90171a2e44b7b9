package handler

import (
	appaccount "github.com/aigate/backend/internal/application/account"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the privileged reporting and reset endpoints
type AdminHandler struct {
	BaseHandler
	adminService *appaccount.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *appaccount.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// UserIDParam binds the {id} path segment
type UserIDParam struct {
	ID int64 `uri:"id" binding:"required,gt=0"`
}

// StatisticsResponse aggregates usage across accounts
type StatisticsResponse struct {
	TotalUsers             int64  `json:"total_users"`
	TotalAPICalls          int64  `json:"total_api_calls"`
	ActiveUsers            int64  `json:"active_users"`
	AverageAPICallsPerUser string `json:"average_api_calls_per_user"`
}

// UserListResponse is the body of GET /admin/users
type UserListResponse struct {
	Users      []UserResponse     `json:"users"`
	Statistics StatisticsResponse `json:"statistics"`
}

// UsageSummaryResponse is the body of GET /admin/usage
type UsageSummaryResponse struct {
	TotalAPICalls  int64 `json:"total_api_calls"`
	UsersAtLimit   int64 `json:"users_at_limit"`
	UsersWithUsage int64 `json:"users_with_usage"`
	FreeAPILimit   int64 `json:"free_api_limit"`
	TotalUsers     int64 `json:"total_users"`
}

// UserDetailResponse is the body of GET /admin/user/{id}
type UserDetailResponse struct {
	User           UserResponse `json:"user"`
	LimitReached   bool         `json:"limit_reached"`
	RemainingCalls any          `json:"remaining_calls"`
}

// ResetUsageResponse is the body of PATCH /admin/user/{id}/reset-api-calls
type ResetUsageResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

// EndpointStatResponse is one tally row
type EndpointStatResponse struct {
	Method   string `json:"method"`
	Endpoint string `json:"endpoint"`
	Count    int64  `json:"count"`
}

// EndpointStatsResponse is the body of GET /admin/stats/endpoints
type EndpointStatsResponse struct {
	Stats []EndpointStatResponse `json:"stats"`
}

// ListUsers handles GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	result, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, UserListResponse{
		Users: toUserResponses(result.Users),
		Statistics: StatisticsResponse{
			TotalUsers:             result.Statistics.TotalUsers,
			TotalAPICalls:          result.Statistics.TotalAPICalls,
			ActiveUsers:            result.Statistics.ActiveUsers,
			AverageAPICallsPerUser: result.Statistics.AverageAPICallsPerUser,
		},
	})
}

// UsageSummary handles GET /admin/usage
func (h *AdminHandler) UsageSummary(c *gin.Context) {
	result, err := h.adminService.UsageSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, UsageSummaryResponse{
		TotalAPICalls:  result.TotalAPICalls,
		UsersAtLimit:   result.UsersAtLimit,
		UsersWithUsage: result.UsersWithUsage,
		FreeAPILimit:   result.FreeAPILimit,
		TotalUsers:     result.TotalUsers,
	})
}

// UserDetail handles GET /admin/user/{id}
func (h *AdminHandler) UserDetail(c *gin.Context) {
	id, ok := h.bindUserID(c)
	if !ok {
		return
	}

	result, err := h.adminService.UserDetail(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, UserDetailResponse{
		User:           toUserResponse(result.User),
		LimitReached:   result.LimitReached,
		RemainingCalls: result.RemainingCalls,
	})
}

// ResetUsage handles PATCH /admin/user/{id}/reset-api-calls
func (h *AdminHandler) ResetUsage(c *gin.Context) {
	id, ok := h.bindUserID(c)
	if !ok {
		return
	}

	result, err := h.adminService.ResetUsage(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ResetUsageResponse{
		Message: result.Message,
		UserID:  result.UserID,
	})
}

// EndpointStats handles GET /admin/stats/endpoints
func (h *AdminHandler) EndpointStats(c *gin.Context) {
	stats, err := h.adminService.EndpointStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]EndpointStatResponse, len(stats))
	for i, st := range stats {
		out[i] = EndpointStatResponse{Method: st.Method, Endpoint: st.Endpoint, Count: st.Count}
	}
	h.Success(c, EndpointStatsResponse{Stats: out})
}

func (h *AdminHandler) bindUserID(c *gin.Context) (int64, bool) {
	var param UserIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		h.BadRequest(c, "Invalid user ID.")
		return 0, false
	}
	return param.ID, true
}
