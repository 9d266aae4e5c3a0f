package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PortNumber53/content-strategy-engine/internal/models"
)

// TrendSuggester generates plausible search queries for a topic. ai.Service implements it.
type TrendSuggester interface {
	SuggestTrends(ctx context.Context, topic string) ([]string, error)
}

// AITrends fabricates trend signals with a model. They are tagged "Google Trends (AI)"
// so clients can tell them apart from measured data.
type AITrends struct {
	Suggester TrendSuggester
}

func (p AITrends) Name() string { return "ai-trends" }

func (p AITrends) FetchByTopic(ctx context.Context, topic string) ([]models.Trend, error) {
	if p.Suggester == nil {
		return nil, fmt.Errorf("ai trends: no suggester configured")
	}
	keywords, err := p.Suggester.SuggestTrends(ctx, topic)
	if err != nil {
		return nil, err
	}
	out := make([]models.Trend, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out = append(out, models.Trend{
			Keyword:  k,
			Link:     "https://www.google.com/search?q=" + url.QueryEscape(k),
			Platform: models.PlatformGoogleTrendsAI,
			Industry: topic,
		})
	}
	return out, nil
}
