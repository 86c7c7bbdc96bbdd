package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Healthy   bool            `json:"healthy"`
	Mongo     *bool           `json:"mongo,omitempty"`
	Redis     map[string]bool `json:"redis,omitempty"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// HealthMonitor pings its dependencies periodically and keeps the latest snapshot.
// Nil or empty dependencies are not reported.
type HealthMonitor struct {
	redis    map[string]*redis.Client
	mongo    *mongo.Client
	interval time.Duration
	logger   *zap.Logger

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(redisClients map[string]*redis.Client, mongoClient *mongo.Client, interval time.Duration, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		redis:    redisClients,
		mongo:    mongoClient,
		interval: interval,
		logger:   logger,
		current:  HealthStatus{Healthy: true},
	}
}

// Status returns latest stored health snapshot.
func (h *HealthMonitor) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Check pings every dependency once and stores the result.
func (h *HealthMonitor) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := HealthStatus{Healthy: true, CheckedAt: time.Now()}
	if len(h.redis) > 0 {
		status.Redis = make(map[string]bool, len(h.redis))
		for name, client := range h.redis {
			ok := client.Ping(ctx).Err() == nil
			status.Redis[name] = ok
			status.Healthy = status.Healthy && ok
		}
	}
	if h.mongo != nil {
		ok := h.mongo.Ping(ctx, nil) == nil
		status.Mongo = &ok
		status.Healthy = status.Healthy && ok
	}
	if !status.Healthy {
		h.logger.Warn("dependency health check failed", zap.Any("status", status))
	}

	h.mu.Lock()
	h.current = status
	h.mu.Unlock()
	return status
}

// Start runs Check immediately and then every interval until ctx is done.
func (h *HealthMonitor) Start(ctx context.Context) {
	h.Check(ctx)
	go func() {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Check(ctx)
			}
		}
	}()
}
