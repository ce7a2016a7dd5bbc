// Package ratelimit - ограничение частоты запросов с общим счётчиком в Redis,
// так что лимит действует сразу на все инстансы сервиса.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// Limiter - фиксированное окно: INCR ключа клиента, TTL ставится на первом запросе окна
type Limiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
}

func New(rdb redis.Cmdable, limit int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, limit: limit, window: window}
}

// Allow увеличивает счётчик клиента и сообщает, укладывается ли он в лимит
func (l *Limiter) Allow(ctx context.Context, client string) (bool, error) {
	key := keyPrefix + client

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("ratelimit: failed to count request: %w", err)
	}

	// ключ без срока жизни - первый запрос окна (или TTL потерялся)
	if ttl.Val() < 0 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return true, fmt.Errorf("ratelimit: failed to set window: %w", err)
		}
	}

	return incr.Val() <= int64(l.limit), nil
}

// Middleware отвечает 429, когда клиент превысил лимит.
// При недоступности Redis запрос пропускается.
func Middleware(log *slog.Logger, limiter *Limiter) func(http.Handler) http.Handler {
	log = log.With(slog.String("component", "middleware/ratelimit"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientIP(r)
			allowed, err := limiter.Allow(r.Context(), client)
			if err != nil {
				log.Error("rate limiter unavailable", slog.String("client", client), slog.Any("error", err))
			}
			if !allowed {
				log.Warn("rate limit exceeded", slog.String("client", client))
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(limiter.window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests. Please try again later.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP - хост из RemoteAddr. Заголовкам прокси не доверяем: за балансировщиком
// адрес клиента в RemoteAddr подставляет middleware.RealIP (http_server.trust_proxy).
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
