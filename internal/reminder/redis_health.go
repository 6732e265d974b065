package reminder

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisHealth пингует Redis очереди.
type RedisHealth struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisHealth(opts *redis.Options, log *zap.Logger) *RedisHealth {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisHealth{client: redis.NewClient(opts), log: log}
}

// Check пингует Redis синхронно.
func (h *RedisHealth) Check(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}

// Run пингует Redis каждые interval, пока не отменён ctx.
// В лог пишутся только переходы между доступен/недоступен.
func (h *RedisHealth) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		pingCtx, cancel := context.WithTimeout(ctx, interval/2)
		err := h.Check(pingCtx)
		cancel()

		switch {
		case err != nil && healthy:
			h.log.Error("redis connection lost", zap.Error(err))
			healthy = false
		case err == nil && !healthy:
			h.log.Info("redis connection restored")
			healthy = true
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *RedisHealth) Close() error {
	return h.client.Close()
}
