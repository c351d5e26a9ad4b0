package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader is the request header clients use to make a POST safe to retry
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotencyMiddleware claims the Idempotency-Key in redis before the handler runs.
// A second request with the same key within ttl gets 409. The claim is released when
// the handler fails, so the client can retry after fixing its request.
// Requests without the header and redis outages pass through unguarded.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idemKey := r.Header.Get(IdempotencyKeyHeader)
			if idemKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := "idempotency:" + r.URL.Path + ":" + idemKey

			claimed, err := redisClient.SetNX(r.Context(), key, middleware.GetReqID(r.Context()), ttl).Result()
			if err != nil {
				logger.Error("Failed to claim idempotency key", zap.Error(err), zap.String("key", key))
				next.ServeHTTP(w, r)
				return
			}

			if !claimed {
				logger.Info("Duplicate request rejected", zap.String("idempotency_key", idemKey))
				RespondWithError(w, http.StatusConflict, "duplicate request")
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if ww.Status() >= http.StatusBadRequest {
				if err := redisClient.Del(context.WithoutCancel(r.Context()), key).Err(); err != nil {
					logger.Warn("Failed to release idempotency key", zap.Error(err), zap.String("key", key))
				}
			}
		})
	}
}
