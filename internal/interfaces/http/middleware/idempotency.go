package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/retailops/core/internal/infrastructure/cache"
	"github.com/retailops/core/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader is the header clients send to deduplicate retries
const IdempotencyKeyHeader = "Idempotency-Key"

// Idempotency rejects replays of mutating requests that carry an
// Idempotency-Key header. The key is claimed before the handler runs; a
// second request with the same key gets 409 while the first outcome stands.
// Requests without the header pass through untouched.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		// Scope the key to method and path so the same key can be reused
		// across different operations
		scopedKey := c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		fresh, err := store.MarkProcessed(c.Request.Context(), scopedKey, ttl)
		if err != nil {
			// fail open when the store is unreachable
			if log != nil {
				log.Warn("idempotency store unavailable",
					zap.String("key", key),
					zap.Error(err))
			}
			c.Next()
			return
		}
		if !fresh {
			c.AbortWithStatusJSON(http.StatusConflict,
				dto.NewErrorResponse(dto.ErrCodeDuplicateRequest,
					"A request with this idempotency key was already processed"))
			return
		}

		c.Next()
	}
}
