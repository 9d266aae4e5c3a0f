package sources

import (
	"context"
	"errors"
	"strings"

	"github.com/PortNumber53/content-strategy-engine/internal/cache"
	"github.com/PortNumber53/content-strategy-engine/internal/models"
)

// TopicSource searches one platform for trends about a topic.
// Implementations return an error on transport or parse failure; the Runner absorbs it.
type TopicSource interface {
	Name() string
	FetchByTopic(ctx context.Context, topic string) ([]models.Trend, error)
}

// CompetitorSource resolves a handle, channel or feed URL into an identity plus recent posts.
type CompetitorSource interface {
	Name() string
	Platform() models.Platform
	FetchByHandle(ctx context.Context, handle string) (models.CompetitorFetch, error)
}

var ErrQuotaExceeded = errors.New("daily source quota exceeded")

type bypassCacheKey struct{}

// BypassCache makes cached sources skip the lookup (the fresh result is still stored).
func BypassCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassCacheKey{}, true)
}

func cacheBypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassCacheKey{}).(bool)
	return v
}

func cacheKey(name, s string) string {
	return name + ":" + strings.ToLower(strings.TrimSpace(s))
}

type cachedTopic struct {
	TopicSource
	cache *cache.Cache[[]models.Trend]
}

// CachedTopic serves repeated topic queries from c. Failed fetches are not cached.
func CachedTopic(src TopicSource, c *cache.Cache[[]models.Trend]) TopicSource {
	if c == nil {
		return src
	}
	return cachedTopic{TopicSource: src, cache: c}
}

func (s cachedTopic) FetchByTopic(ctx context.Context, topic string) ([]models.Trend, error) {
	key := cacheKey(s.Name(), topic)
	if !cacheBypassed(ctx) {
		if v, ok := s.cache.Get(key); ok {
			return v, nil
		}
	}
	v, err := s.TopicSource.FetchByTopic(ctx, topic)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, v)
	return v, nil
}

type cachedCompetitor struct {
	CompetitorSource
	cache *cache.Cache[models.CompetitorFetch]
}

func CachedCompetitor(src CompetitorSource, c *cache.Cache[models.CompetitorFetch]) CompetitorSource {
	if c == nil {
		return src
	}
	return cachedCompetitor{CompetitorSource: src, cache: c}
}

func (s cachedCompetitor) FetchByHandle(ctx context.Context, handle string) (models.CompetitorFetch, error) {
	key := cacheKey(s.Name(), handle)
	if !cacheBypassed(ctx) {
		if v, ok := s.cache.Get(key); ok {
			return v, nil
		}
	}
	v, err := s.CompetitorSource.FetchByHandle(ctx, handle)
	if err != nil {
		return models.CompetitorFetch{}, err
	}
	s.cache.Set(key, v)
	return v, nil
}
