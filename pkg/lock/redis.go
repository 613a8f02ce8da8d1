package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrBusy = errors.New("system busy, please try again later (lock)")

type RedisConfig struct {
	Prefix     string
	TTL        time.Duration
	Retries    int
	RetryDelay time.Duration

	// Held keys get their TTL reset at this interval until unlock.
	// Defaults to TTL/3.
	RefreshInterval time.Duration
}

// RedisLocker serializes across service instances sharing one redis.
type RedisLocker struct {
	cache  *cache.RedisClient
	cfg    RedisConfig
	logger logger.ZapLogger
}

func NewRedisLocker(c *cache.RedisClient, cfg RedisConfig, log logger.ZapLogger) *RedisLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = "lock:stock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	if cfg.RefreshInterval <= 0 || cfg.RefreshInterval >= cfg.TTL {
		cfg.RefreshInterval = cfg.TTL / 3
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = cfg.TTL
	}
	return &RedisLocker{cache: c, cfg: cfg, logger: log}
}

func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalizeKeys(keys)
	value := uuid.New().String()
	held := make([]string, 0, len(keys))

	for _, k := range keys {
		key := l.cfg.Prefix + k
		if err := l.acquire(ctx, key, value); err != nil {
			l.release(held, value)
			return nil, err
		}
		held = append(held, key)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.refresh(held, value, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			l.release(held, value)
		})
	}, nil
}

// refresh keeps the held keys alive for units of work longer than the TTL.
func (l *RedisLocker) refresh(keys []string, value string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), l.cfg.RefreshInterval)
		for _, k := range keys {
			ok, err := l.cache.ExtendLock(ctx, k, value, l.cfg.TTL)
			if err != nil {
				l.logger.Warn("failed to extend lock", zap.String("key", k), zap.Error(err))
			} else if !ok {
				l.logger.Warn("lock lost before release", zap.String("key", k))
			}
		}
		cancel()
	}
}

func (l *RedisLocker) acquire(ctx context.Context, key, value string) error {
	for i := 0; i < l.cfg.Retries; i++ {
		ok, err := l.cache.AcquireLock(ctx, key, value, l.cfg.TTL)
		if err != nil {
			l.logger.Error("failed to acquire lock redis error", zap.String("key", key), zap.Error(err))
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.cfg.RetryDelay):
		}
	}
	return ErrBusy
}

func (l *RedisLocker) release(keys []string, value string) {
	// Release must still run when the caller's ctx was cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, k := range keys {
		if err := l.cache.ReleaseLock(ctx, k, value); err != nil {
			l.logger.Warn("failed to release lock", zap.String("key", k), zap.Error(err))
		}
	}
}
