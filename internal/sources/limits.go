package sources

import (
	"context"
	"fmt"
	"math"

	"github.com/PortNumber53/content-strategy-engine/internal/config"
	"github.com/PortNumber53/content-strategy-engine/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// QuotaFunc records add requests against today's usage for source and reports whether dailyMax still holds.
// store.Store.ConsumeRequests satisfies it.
type QuotaFunc func(ctx context.Context, source string, add, dailyMax int64) (ok bool, used int64, err error)

var fallbackLimit = config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}

func (r *Runner) limitFor(name string) config.RateLimitConfig {
	if cfg, ok := r.limits[name]; ok {
		return cfg
	}
	return fallbackLimit
}

func (r *Runner) limiterFor(name string) (*rate.Limiter, config.RateLimitConfig) {
	cfg := r.limitFor(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if lim, ok := r.limiters[name]; ok {
		return lim, cfg
	}
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(cfg.RequestsPerSecond)))
	}
	lim := rate.NewLimiter(limit, burst)
	r.limiters[name] = lim
	return lim, cfg
}

// acquire waits for the source's limiter and charges one request to its daily quota.
func (r *Runner) acquire(ctx context.Context, name string) error {
	lim, cfg := r.limiterFor(name)
	if err := lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	if r.Quota == nil || cfg.DailyRequestsMax <= 0 {
		return nil
	}
	ok, used, err := r.Quota(ctx, name, 1, cfg.DailyRequestsMax)
	if err != nil {
		return fmt.Errorf("quota check: %w", err)
	}
	if !ok {
		r.Logger.WithFields(logrus.Fields{"source": name, "used": used, "max": cfg.DailyRequestsMax}).Warn("[Sources] quota exceeded")
		return ErrQuotaExceeded
	}
	return nil
}

type guardedTopic struct {
	TopicSource
	r *Runner
}

func (s guardedTopic) FetchByTopic(ctx context.Context, topic string) ([]models.Trend, error) {
	if err := s.r.acquire(ctx, s.Name()); err != nil {
		return nil, err
	}
	return s.TopicSource.FetchByTopic(ctx, topic)
}

type guardedCompetitor struct {
	CompetitorSource
	r *Runner
}

func (s guardedCompetitor) FetchByHandle(ctx context.Context, handle string) (models.CompetitorFetch, error) {
	if err := s.r.acquire(ctx, s.Name()); err != nil {
		return models.CompetitorFetch{}, err
	}
	return s.CompetitorSource.FetchByHandle(ctx, handle)
}
