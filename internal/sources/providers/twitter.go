package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PortNumber53/content-strategy-engine/internal/models"
)

const twitterAPI = "https://api.twitter.com/2"

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// TwitterSearch returns recent, relevant, original English tweets about a topic.
type TwitterSearch struct {
	BearerToken string
	Client      *http.Client
}

func (p TwitterSearch) Name() string { return "twitter" }

type tweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type tweetsResponse struct {
	Data []tweet `json:"data"`
}

func (p TwitterSearch) FetchByTopic(ctx context.Context, topic string) ([]models.Trend, error) {
	if p.BearerToken == "" {
		return nil, fmt.Errorf("twitter bearer token is not configured")
	}
	q := url.Values{}
	q.Set("query", topic+" -is:retweet lang:en")
	q.Set("max_results", "10")
	q.Set("sort_order", "relevancy")

	var parsed tweetsResponse
	if err := getJSON(ctx, p.Client, twitterAPI+"/tweets/search/recent?"+q.Encode(), bearer(p.BearerToken), "x_search", &parsed); err != nil {
		return nil, err
	}
	out := make([]models.Trend, 0, len(parsed.Data))
	for _, tw := range parsed.Data {
		text := strings.TrimSpace(tw.Text)
		if text == "" {
			continue
		}
		out = append(out, models.Trend{
			Keyword:  text,
			Link:     "https://twitter.com/i/web/status/" + tw.ID,
			Platform: models.PlatformTwitter,
			Industry: topic,
		})
	}
	return out, nil
}

// TwitterTimeline tracks a user's latest original tweets.
type TwitterTimeline struct {
	BearerToken string
	Client      *http.Client
}

func (p TwitterTimeline) Name() string              { return "twitter" }
func (p TwitterTimeline) Platform() models.Platform { return models.PlatformTwitter }

type twitterUserResponse struct {
	Data *struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
}

func (p TwitterTimeline) FetchByHandle(ctx context.Context, handle string) (models.CompetitorFetch, error) {
	if p.BearerToken == "" {
		return models.CompetitorFetch{}, fmt.Errorf("twitter bearer token is not configured")
	}
	username := twitterUsername(handle)
	if username == "" {
		return models.CompetitorFetch{}, fmt.Errorf("twitter handle is empty")
	}
	auth := bearer(p.BearerToken)

	var user twitterUserResponse
	if err := getJSON(ctx, p.Client, twitterAPI+"/users/by/username/"+url.PathEscape(username), auth, "x_user", &user); err != nil {
		return models.CompetitorFetch{}, err
	}
	if user.Data == nil || user.Data.ID == "" {
		return models.CompetitorFetch{}, fmt.Errorf("twitter user not found: %s", username)
	}
	if user.Data.Username != "" {
		username = user.Data.Username
	}

	q := url.Values{}
	q.Set("max_results", "10")
	q.Set("exclude", "replies,retweets")
	q.Set("tweet.fields", "created_at")
	var timeline tweetsResponse
	if err := getJSON(ctx, p.Client, twitterAPI+"/users/"+user.Data.ID+"/tweets?"+q.Encode(), auth, "x_timeline", &timeline); err != nil {
		return models.CompetitorFetch{}, err
	}

	out := models.CompetitorFetch{
		Platform:   models.PlatformTwitter,
		Identifier: username,
		Name:       user.Data.Name,
		Posts:      make([]models.CompetitorPost, 0, len(timeline.Data)),
	}
	for _, tw := range timeline.Data {
		out.Posts = append(out.Posts, models.CompetitorPost{
			PostID:      tw.ID,
			Title:       tw.Text,
			Link:        fmt.Sprintf("https://twitter.com/%s/status/%s", username, tw.ID),
			PublishedAt: parseTime(tw.CreatedAt),
			Format:      models.FormatTweet,
		})
	}
	out.Posts = sortAndBound(out.Posts, MaxRecentPosts)
	return out, nil
}

// twitterUsername accepts "name", "@name" or a twitter.com / x.com profile URL.
func twitterUsername(handle string) string {
	h := strings.TrimSpace(handle)
	for _, host := range []string{"twitter.com/", "x.com/"} {
		if i := strings.Index(h, host); i >= 0 {
			h = h[i+len(host):]
			if j := strings.IndexAny(h, "/?#"); j >= 0 {
				h = h[:j]
			}
			break
		}
	}
	return strings.TrimPrefix(h, "@")
}
