package handler

import (
	"net/http"
	"testing"

	appaccount "github.com/aigate/backend/internal/application/account"
	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDashboardHandler_Get(t *testing.T) {
	env := newHandlerEnv(t)
	h := NewDashboardHandler(appaccount.NewDashboardService(env.repo, env.ledger, env.policy, zap.NewNop()))
	env.engine.GET("/dashboard", env.session(), h.Get)

	id, user := env.createAccount("user@example.com", account.RoleStandard)
	_, admin := env.createAccount("admin@example.com", account.RolePrivileged)
	for i := 0; i < 7; i++ {
		require.NoError(t, env.ledger.Increment(t.Context(), id))
	}

	tests := []struct {
		name          string
		cookie        *http.Cookie
		wantEmail     string
		wantCalls     float64
		wantRemaining any
	}{
		{"standard account", user, "user@example.com", 7, float64(13)},
		{"privileged account", admin, "admin@example.com", 0, "unlimited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(http.MethodGet, "/dashboard", nil, tt.cookie)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			data := testutil.AssertSuccessResponse(t, w.Body.Bytes())
			assert.Equal(t, tt.wantEmail, data["user"].(map[string]any)["email"])
			usage := data["api_usage"].(map[string]any)
			assert.Equal(t, tt.wantCalls, usage["api_calls"])
			assert.Equal(t, float64(20), usage["limit"])
			assert.Equal(t, tt.wantRemaining, usage["remaining_calls"])
			assert.Equal(t, false, usage["limit_reached"])
		})
	}
}
