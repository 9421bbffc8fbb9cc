package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-survey/backend/internal/auth"
)

func newRouter(jwt *auth.JWTService, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("http://console.local"))
	r.GET("/x", JWT(jwt), RequireRole(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextSubject))
	})
	return r
}

func do(r http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Origin", "http://console.local")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAndRole(t *testing.T) {
	jwt := auth.NewJWTService("secret", 1)
	r := newRouter(jwt, auth.RoleOperator)

	op, err := jwt.Generate("ops", auth.RoleOperator)
	require.NoError(t, err)
	tr, err := jwt.Generate("adapter", auth.RoleTransport)
	require.NoError(t, err)
	admin, err := jwt.Generate("root", auth.RoleAdmin)
	require.NoError(t, err)

	w := do(r, http.MethodGet, "/x", op)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops", w.Body.String())
	assert.Equal(t, "http://console.local", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/x", tr).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", admin).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/x", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/x", "nope").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x?token="+op, "").Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(auth.NewJWTService("secret", 1))
	w := do(r, http.MethodOptions, "/x", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}
