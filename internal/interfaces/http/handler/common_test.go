package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appaccount "github.com/aigate/backend/internal/application/account"
	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/infrastructure/auth"
	"github.com/aigate/backend/internal/infrastructure/config"
	"github.com/aigate/backend/internal/infrastructure/persistence"
	"github.com/aigate/backend/internal/interfaces/http/middleware"
	"github.com/aigate/backend/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// handlerEnv wires real services over an in-memory database
type handlerEnv struct {
	t        *testing.T
	repo     *persistence.GormAccountRepository
	ledger   *persistence.GormUsageLedger
	tally    *persistence.GormEndpointTally
	policy   account.QuotaPolicy
	sessions *auth.SessionService
	engine   *gin.Engine
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return &handlerEnv{
		t:        t,
		repo:     persistence.NewGormAccountRepository(db),
		ledger:   persistence.NewGormUsageLedger(db),
		tally:    persistence.NewGormEndpointTally(db),
		policy:   account.NewQuotaPolicy(20),
		sessions: auth.NewSessionService(config.JWTConfig{Secret: "handler-test-secret-long-enough", Issuer: "aigate-test", Expiration: time.Hour}),
		engine:   gin.New(),
	}
}

func (e *handlerEnv) authService() *appaccount.AuthService {
	return appaccount.NewAuthService(e.repo, e.ledger, e.sessions, appaccount.DefaultAuthServiceConfig(), zap.NewNop())
}

func (e *handlerEnv) session() gin.HandlerFunc {
	return middleware.SessionAuth(middleware.SessionConfig{Service: e.sessions})
}

// createAccount stores an account directly and returns its session cookie
func (e *handlerEnv) createAccount(email string, role account.Role) (int64, *http.Cookie) {
	e.t.Helper()
	acct, err := account.NewAccount(email, "pw1", role)
	require.NoError(e.t, err)
	require.NoError(e.t, e.repo.Create(e.t.Context(), acct))

	token, _, err := e.sessions.Issue(auth.Identity{AccountID: acct.ID, Email: acct.Email, Role: acct.Role})
	require.NoError(e.t, err)
	return acct.ID, &http.Cookie{Name: middleware.DefaultCookie, Value: token}
}

func (e *handlerEnv) serve(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var req *http.Request
	if body != nil {
		req = testutil.JSONRequest(e.t, method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}
