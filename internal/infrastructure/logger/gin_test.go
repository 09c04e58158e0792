package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(logger), GinMiddleware(logger))
	return r
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	r := newTestRouter(zap.NewNop())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestID_PropagatesCallerID(t *testing.T) {
	r := newTestRouter(zap.NewNop())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "caller-supplied-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "caller-supplied-id", w.Header().Get("X-Request-ID"))
}

func TestGinMiddleware_StoresRequestLogger(t *testing.T) {
	r := newTestRouter(zap.NewNop())
	var got *zap.Logger
	r.GET("/ping", func(c *gin.Context) {
		got = GetGinLogger(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.NotNil(t, got)
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	r := newTestRouter(zap.NewNop())
	r.GET("/boom", func(c *gin.Context) { panic("unexpected") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
