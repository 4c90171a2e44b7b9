package handler

import (
	"fmt"
	"net/http"
	"testing"

	appaccount "github.com/aigate/backend/internal/application/account"
	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/domain/shared"
	"github.com/aigate/backend/internal/interfaces/http/middleware"
	"github.com/aigate/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAdminEnv(t *testing.T) (*handlerEnv, *http.Cookie) {
	env := newHandlerEnv(t)
	h := NewAdminHandler(appaccount.NewAdminService(env.repo, env.ledger, env.tally, env.policy, zap.NewNop()))
	admin := env.engine.Group("/admin", env.session(), middleware.RequireRole(account.RolePrivileged))
	admin.GET("/users", h.ListUsers)
	admin.GET("/usage", h.UsageSummary)
	admin.GET("/user/:id", h.UserDetail)
	admin.PATCH("/user/:id/reset-api-calls", h.ResetUsage)
	admin.GET("/stats/endpoints", h.EndpointStats)

	_, cookie := env.createAccount("admin@example.com", account.RolePrivileged)
	return env, cookie
}

func TestAdminHandler_UserLifecycle(t *testing.T) {
	env, admin := newAdminEnv(t)
	id, _ := env.createAccount("user@example.com", account.RoleStandard)
	for i := 0; i < 20; i++ {
		require.NoError(t, env.ledger.Increment(t.Context(), id))
	}

	w := env.serve(http.MethodGet, fmt.Sprintf("/admin/user/%d", id), nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	detail := testutil.AssertSuccessResponse(t, w.Body.Bytes())
	assert.Equal(t, true, detail["limit_reached"])
	assert.Equal(t, float64(0), detail["remaining_calls"])
	assert.Equal(t, float64(20), detail["user"].(map[string]any)["api_calls"])

	w = env.serve(http.MethodPatch, fmt.Sprintf("/admin/user/%d/reset-api-calls", id), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	reset := testutil.AssertSuccessResponse(t, w.Body.Bytes())
	assert.Equal(t, "API calls reset successfully.", reset["message"])
	assert.Equal(t, float64(id), reset["user_id"])

	calls, err := env.ledger.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestAdminHandler_InvalidUserID(t *testing.T) {
	env, admin := newAdminEnv(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/admin/user/abc"},
		{http.MethodGet, "/admin/user/0"},
		{http.MethodPatch, "/admin/user/-3/reset-api-calls"},
	}
	for _, tt := range tests {
		w := env.serve(tt.method, tt.path, nil, admin)
		assert.Equal(t, http.StatusBadRequest, w.Code, tt.path)
		errBody := testutil.AssertErrorResponse(t, w.Body.Bytes(), shared.CodeInvalidInput)
		assert.Equal(t, "Invalid user ID.", errBody["message"])
	}

	w := env.serve(http.MethodPatch, "/admin/user/4242/reset-api-calls", nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_Listings(t *testing.T) {
	env, admin := newAdminEnv(t)
	a, _ := env.createAccount("a@example.com", account.RoleStandard)
	env.createAccount("b@example.com", account.RoleStandard)
	for i := 0; i < 5; i++ {
		require.NoError(t, env.ledger.Increment(t.Context(), a))
	}
	require.NoError(t, env.tally.Record(t.Context(), http.MethodPost, "/generate"))
	require.NoError(t, env.tally.Record(t.Context(), http.MethodPost, "/generate"))
	require.NoError(t, env.tally.Record(t.Context(), http.MethodGet, "/dashboard"))

	w := env.serve(http.MethodGet, "/admin/users", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	data := testutil.AssertSuccessResponse(t, w.Body.Bytes())
	assert.Len(t, data["users"], 3)
	stats := data["statistics"].(map[string]any)
	assert.Equal(t, float64(3), stats["total_users"])
	assert.Equal(t, float64(5), stats["total_api_calls"])
	assert.Equal(t, float64(1), stats["active_users"])
	assert.Equal(t, "1.67", stats["average_api_calls_per_user"])

	w = env.serve(http.MethodGet, "/admin/usage", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	usage := testutil.AssertSuccessResponse(t, w.Body.Bytes())
	assert.Equal(t, float64(20), usage["free_api_limit"])
	assert.Equal(t, float64(5), usage["total_api_calls"])

	w = env.serve(http.MethodGet, "/admin/stats/endpoints", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	rows := testutil.AssertSuccessResponse(t, w.Body.Bytes())["stats"].([]any)
	require.Len(t, rows, 2)
	first := rows[0].(map[string]any)
	assert.Equal(t, "POST", first["method"])
	assert.Equal(t, "/generate", first["endpoint"])
	assert.Equal(t, float64(2), first["count"])
}

func TestAdminHandler_RequiresPrivilege(t *testing.T) {
	env, _ := newAdminEnv(t)
	_, user := env.createAccount("user@example.com", account.RoleStandard)

	w := env.serve(http.MethodGet, "/admin/users", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
	testutil.AssertErrorResponse(t, w.Body.Bytes(), shared.CodeRoleForbidden)
}
