package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouterSetup(t *testing.T) {
	t.Run("mounts groups at the root by default", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine)

		group := NewDomainGroup("/auth")
		group.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, "me") })
		r.Register(group).Setup()

		w := serve(engine, http.MethodGet, "/auth/me")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "me", w.Body.String())
	})

	t.Run("honors base path", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine, WithBasePath("/api"))

		group := NewDomainGroup("/auth")
		group.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })
		r.Register(group).Setup()

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/auth/me").Code)
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/auth/me").Code)
	})

	t.Run("applies shared middleware to every group", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine).Use(func(c *gin.Context) {
			c.Header("X-Shared", "yes")
			c.Next()
		})

		r.Register(NewDomainGroup("/a").GET("", func(c *gin.Context) { c.Status(http.StatusOK) })).
			Register(NewDomainGroup("/b").GET("", func(c *gin.Context) { c.Status(http.StatusOK) }))
		r.Setup()

		assert.Equal(t, "yes", serve(engine, http.MethodGet, "/a").Header().Get("X-Shared"))
		assert.Equal(t, "yes", serve(engine, http.MethodGet, "/b").Header().Get("X-Shared"))
	})
}

func TestDomainGroup(t *testing.T) {
	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("/admin")
		ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
		g.GET("/user/:id", ok).
			POST("/user", ok).
			Handle(http.MethodPut, "/user/:id", ok).
			PATCH("/user/:id/reset-api-calls", ok).
			DELETE("/user/:id", ok)
		g.RegisterRoutes(&engine.RouterGroup)

		tests := []struct {
			method string
			path   string
		}{
			{http.MethodGet, "/admin/user/1"},
			{http.MethodPost, "/admin/user"},
			{http.MethodPut, "/admin/user/1"},
			{http.MethodPatch, "/admin/user/1/reset-api-calls"},
			{http.MethodDelete, "/admin/user/1"},
		}
		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
			assert.Equal(t, tt.method, w.Body.String())
		}
	})

	t.Run("group middleware runs before handlers", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("/admin")
		g.Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusForbidden)
		})
		g.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.RegisterRoutes(&engine.RouterGroup)

		assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/admin/users").Code)
	})

	t.Run("nests subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("/admin")
		g.Group("/stats").GET("/endpoints", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.RegisterRoutes(&engine.RouterGroup)

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/admin/stats/endpoints").Code)
	})
}
