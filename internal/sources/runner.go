package sources

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PortNumber53/content-strategy-engine/internal/cache"
	"github.com/PortNumber53/content-strategy-engine/internal/config"
	"github.com/PortNumber53/content-strategy-engine/internal/logging"
	"github.com/PortNumber53/content-strategy-engine/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Runner owns the configured sources. Every registered source is wrapped as
// cache -> limiter/quota -> source, so cache hits never spend quota.
type Runner struct {
	Logger *logrus.Logger
	Quota  QuotaFunc

	limits      map[string]config.RateLimitConfig
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	topics      []TopicSource
	competitors map[models.Platform]CompetitorSource
	caches      []flusher
}

type flusher interface {
	Len() int
	Flush() int
}

func NewRunner(limits map[string]config.RateLimitConfig, quota QuotaFunc, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	if limits == nil {
		limits = config.DefaultRateLimits()
	}
	return &Runner{
		Logger:      logger,
		Quota:       quota,
		limits:      limits,
		limiters:    map[string]*rate.Limiter{},
		competitors: map[models.Platform]CompetitorSource{},
	}
}

// AddTopicSource registers src in the trend fan-out. Sources run concurrently but
// their results are merged in registration order.
func (r *Runner) AddTopicSource(src TopicSource, c *cache.Cache[[]models.Trend]) {
	r.topics = append(r.topics, CachedTopic(guardedTopic{TopicSource: src, r: r}, c))
	if c != nil {
		r.caches = append(r.caches, c)
	}
}

func (r *Runner) AddCompetitorSource(src CompetitorSource, c *cache.Cache[models.CompetitorFetch]) {
	r.competitors[src.Platform()] = CachedCompetitor(guardedCompetitor{CompetitorSource: src, r: r}, c)
	if c != nil {
		r.caches = append(r.caches, c)
	}
}

// CachedEntries counts the live entries across every source cache.
func (r *Runner) CachedEntries() int {
	n := 0
	for _, c := range r.caches {
		n += c.Len()
	}
	return n
}

// FlushCaches empties every source cache and returns how many entries were dropped.
func (r *Runner) FlushCaches() int {
	n := 0
	for _, c := range r.caches {
		n += c.Flush()
	}
	return n
}

func (r *Runner) TopicSources() []string {
	out := make([]string, 0, len(r.topics))
	for _, s := range r.topics {
		out = append(out, s.Name())
	}
	return out
}

func (r *Runner) CompetitorSource(p models.Platform) (CompetitorSource, bool) {
	s, ok := r.competitors[p]
	return s, ok
}

// FetchTrends queries every topic source concurrently. A failing source contributes
// nothing; the others still do.
func (r *Runner) FetchTrends(ctx context.Context, topic string) []models.Trend {
	results := make([][]models.Trend, len(r.topics))
	var g errgroup.Group
	for i, src := range r.topics {
		g.Go(func() error {
			start := time.Now()
			trends, err := src.FetchByTopic(ctx, topic)
			fields := logrus.Fields{"source": src.Name(), "topic": topic, "dur": time.Since(start)}
			if err != nil {
				r.Logger.WithFields(fields).WithError(err).Warn("[Sources] fetch failed")
				return nil
			}
			fields["count"] = len(trends)
			r.Logger.WithFields(fields).Debug("[Sources] fetch done")
			results[i] = trends
			return nil
		})
	}
	_ = g.Wait()
	return MergeTrends(topic, results...)
}

// MergeTrends flattens per-source results in argument order, dropping blank keywords and
// duplicates (same platform, case-insensitive keyword). Missing industry/sentiment get defaults.
func MergeTrends(topic string, groups ...[]models.Trend) []models.Trend {
	seen := map[string]bool{}
	out := []models.Trend{}
	for _, group := range groups {
		for _, t := range group {
			t.Keyword = strings.TrimSpace(t.Keyword)
			if t.Keyword == "" {
				continue
			}
			key := string(t.Platform) + "|" + strings.ToLower(t.Keyword)
			if seen[key] {
				continue
			}
			seen[key] = true
			if t.Industry == "" {
				t.Industry = topic
			}
			if t.Sentiment == "" {
				t.Sentiment = models.SentimentNeutral
			}
			out = append(out, t)
		}
	}
	return out
}
