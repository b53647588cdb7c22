package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/post/:id/", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("/post/:id/", "GET", "200"))
	for _, path := range []string{"/post/1/", "/post/2/"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	after := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("/post/:id/", "GET", "200"))
	assert.Equal(t, before+2, after)
	assert.Zero(t, testutil.ToFloat64(ActiveConnections))
}
