package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PortNumber53/content-strategy-engine/internal/models"
)

const googleTrendsAPI = "https://trends.google.com/trends/api"

// GoogleTrends reads the related-topics widget of the trends explorer for the last 30 days.
// Rising and top lists are unioned (rising first) and deduplicated by keyword.
type GoogleTrends struct {
	Geo    string
	Client *http.Client
}

func (p GoogleTrends) Name() string { return "google-trends" }

type trendsExploreResponse struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

type rankedKeyword struct {
	Topic struct {
		Title string `json:"title"`
		Type  string `json:"type"`
	} `json:"topic"`
	Link string `json:"link"`
}

type trendsRelatedResponse struct {
	Default struct {
		RankedList []struct {
			RankedKeyword []rankedKeyword `json:"rankedKeyword"`
		} `json:"rankedList"`
	} `json:"default"`
}

func (p GoogleTrends) FetchByTopic(ctx context.Context, topic string) ([]models.Trend, error) {
	geo := p.Geo
	if geo == "" {
		geo = "US"
	}
	exploreReq, _ := json.Marshal(map[string]any{
		"comparisonItem": []map[string]string{{"keyword": topic, "geo": geo, "time": "today 1-m"}},
		"category":       0,
		"property":       "",
	})
	q := url.Values{}
	q.Set("hl", "en-US")
	q.Set("tz", "0")
	q.Set("req", string(exploreReq))
	body, err := getBody(ctx, p.Client, googleTrendsAPI+"/explore?"+q.Encode(), map[string]string{"User-Agent": browserUserAgent}, "gtrends_explore")
	if err != nil {
		return nil, err
	}
	var explore trendsExploreResponse
	if err := json.Unmarshal(stripXSSI(body), &explore); err != nil {
		return nil, fmt.Errorf("gtrends_explore_invalid_json err=%w", err)
	}
	var token string
	var widgetReq json.RawMessage
	for _, w := range explore.Widgets {
		if w.ID == "RELATED_TOPICS" {
			token, widgetReq = w.Token, w.Request
			break
		}
	}
	if token == "" {
		return []models.Trend{}, nil
	}

	rq := url.Values{}
	rq.Set("hl", "en-US")
	rq.Set("tz", "0")
	rq.Set("req", string(widgetReq))
	rq.Set("token", token)
	body, err = getBody(ctx, p.Client, googleTrendsAPI+"/widgetdata/relatedsearches?"+rq.Encode(), map[string]string{"User-Agent": browserUserAgent}, "gtrends_related")
	if err != nil {
		return nil, err
	}
	var related trendsRelatedResponse
	if err := json.Unmarshal(stripXSSI(body), &related); err != nil {
		return nil, fmt.Errorf("gtrends_related_invalid_json err=%w", err)
	}
	return relatedTopicsToTrends(topic, related), nil
}

func relatedTopicsToTrends(topic string, related trendsRelatedResponse) []models.Trend {
	lists := related.Default.RankedList
	// [0] is "top", [1] is "rising".
	var ordered []rankedKeyword
	if len(lists) > 1 {
		ordered = append(ordered, lists[1].RankedKeyword...)
	}
	if len(lists) > 0 {
		ordered = append(ordered, lists[0].RankedKeyword...)
	}
	seen := map[string]bool{}
	out := []models.Trend{}
	for _, k := range ordered {
		title := strings.TrimSpace(k.Topic.Title)
		key := strings.ToLower(title)
		if title == "" || seen[key] {
			continue
		}
		seen[key] = true
		link := k.Link
		if strings.HasPrefix(link, "/") {
			link = "https://trends.google.com" + link
		}
		out = append(out, models.Trend{Keyword: title, Link: link, Platform: models.PlatformGoogleTrends, Industry: topic})
	}
	return out
}

// stripXSSI drops the ")]}'" guard the trends API puts in front of its JSON.
func stripXSSI(b []byte) []byte {
	if i := bytes.IndexByte(b, '{'); i > 0 {
		return b[i:]
	}
	return b
}
