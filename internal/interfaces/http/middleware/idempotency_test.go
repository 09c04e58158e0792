package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/retailops/core/internal/infrastructure/cache"
)

func idempotentRouter(store cache.IdempotencyStore) *gin.Engine {
	r := gin.New()
	r.POST("/orders/:id/payments", Idempotency(store, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/orders/:id/cancel", Idempotency(store, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestIdempotency_NoHeaderPassesThrough(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	router := idempotentRouter(store)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/orders/abc/payments", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestIdempotency_ReplayRejected(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	router := idempotentRouter(store)

	first := httptest.NewRequest(http.MethodPost, "/orders/abc/payments", nil)
	first.Header.Set(IdempotencyKeyHeader, "pay-once")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, first)
	assert.Equal(t, http.StatusOK, w.Code)

	replay := httptest.NewRequest(http.MethodPost, "/orders/abc/payments", nil)
	replay.Header.Set(IdempotencyKeyHeader, "pay-once")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, replay)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "DUPLICATE_REQUEST")
}

func TestIdempotency_KeyScopedPerRoute(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	router := idempotentRouter(store)

	payment := httptest.NewRequest(http.MethodPost, "/orders/abc/payments", nil)
	payment.Header.Set(IdempotencyKeyHeader, "shared-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, payment)
	assert.Equal(t, http.StatusOK, w.Code)

	// the same key on a different route is a different request
	cancel := httptest.NewRequest(http.MethodPost, "/orders/abc/cancel", nil)
	cancel.Header.Set(IdempotencyKeyHeader, "shared-key")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, cancel)
	assert.Equal(t, http.StatusOK, w.Code)
}
