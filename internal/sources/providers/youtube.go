package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PortNumber53/content-strategy-engine/internal/models"
)

const youtubeAPI = "https://www.googleapis.com/youtube/v3"

func youtubeWatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// YouTubeSearch finds relevant videos for a topic via the Data API search endpoint.
type YouTubeSearch struct {
	APIKey string
	Client *http.Client
}

func (p YouTubeSearch) Name() string { return "youtube" }

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

func (p YouTubeSearch) FetchByTopic(ctx context.Context, topic string) ([]models.Trend, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("youtube api key is not configured")
	}
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("q", topic)
	q.Set("type", "video")
	q.Set("order", "relevance")
	q.Set("relevanceLanguage", "en")
	q.Set("maxResults", "10")
	q.Set("key", p.APIKey)

	var parsed youtubeSearchResponse
	if err := getJSON(ctx, p.Client, youtubeAPI+"/search?"+q.Encode(), nil, "youtube_search", &parsed); err != nil {
		return nil, err
	}
	out := make([]models.Trend, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		title := normalizeTitle(it.Snippet.Title)
		if title == "" {
			continue
		}
		t := models.Trend{Keyword: title, Platform: models.PlatformYouTube, Industry: topic}
		if it.ID.VideoID != "" {
			t.Link = youtubeWatchURL(it.ID.VideoID)
		}
		out = append(out, t)
	}
	return out, nil
}

// YouTubeChannel tracks a channel given as @handle, channel id, or channel URL.
type YouTubeChannel struct {
	APIKey string
	Client *http.Client
}

func (p YouTubeChannel) Name() string              { return "youtube" }
func (p YouTubeChannel) Platform() models.Platform { return models.PlatformYouTube }

type youtubeChannelsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type youtubePlaylistItemsResponse struct {
	Items []struct {
		Snippet struct {
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
		ContentDetails struct {
			VideoID          string `json:"videoId"`
			VideoPublishedAt string `json:"videoPublishedAt"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (p YouTubeChannel) FetchByHandle(ctx context.Context, handle string) (models.CompetitorFetch, error) {
	if p.APIKey == "" {
		return models.CompetitorFetch{}, fmt.Errorf("youtube api key is not configured")
	}
	param, value, err := channelLookup(handle)
	if err != nil {
		return models.CompetitorFetch{}, err
	}

	chQ := url.Values{}
	chQ.Set("part", "snippet,contentDetails")
	chQ.Set(param, value)
	chQ.Set("key", p.APIKey)
	var ch youtubeChannelsResponse
	if err := getJSON(ctx, p.Client, youtubeAPI+"/channels?"+chQ.Encode(), nil, "youtube_channels", &ch); err != nil {
		return models.CompetitorFetch{}, err
	}
	if len(ch.Items) == 0 {
		return models.CompetitorFetch{}, fmt.Errorf("youtube channel not found: %s", handle)
	}
	channel := ch.Items[0]
	out := models.CompetitorFetch{
		Platform:   models.PlatformYouTube,
		Identifier: channel.ID,
		Name:       channel.Snippet.Title,
		Posts:      []models.CompetitorPost{},
	}
	uploads := channel.ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return out, nil
	}

	plQ := url.Values{}
	plQ.Set("part", "snippet,contentDetails")
	plQ.Set("playlistId", uploads)
	plQ.Set("maxResults", "10")
	plQ.Set("key", p.APIKey)
	var pl youtubePlaylistItemsResponse
	if err := getJSON(ctx, p.Client, youtubeAPI+"/playlistItems?"+plQ.Encode(), nil, "youtube_playlistitems", &pl); err != nil {
		return models.CompetitorFetch{}, err
	}
	for _, it := range pl.Items {
		vid := it.ContentDetails.VideoID
		if vid == "" {
			continue
		}
		published := it.ContentDetails.VideoPublishedAt
		if published == "" {
			published = it.Snippet.PublishedAt
		}
		out.Posts = append(out.Posts, models.CompetitorPost{
			PostID:      vid,
			Title:       normalizeTitle(it.Snippet.Title),
			Link:        youtubeWatchURL(vid),
			PublishedAt: parseTime(published),
			Format:      models.FormatVideo,
		})
	}
	out.Posts = sortAndBound(out.Posts, MaxRecentPosts)
	return out, nil
}

// channelLookup maps user input onto the channels endpoint filter.
func channelLookup(handle string) (param, value string, err error) {
	h := strings.TrimSpace(handle)
	if h == "" {
		return "", "", fmt.Errorf("youtube handle is empty")
	}
	if strings.Contains(h, "youtube.com/") {
		if !strings.Contains(h, "://") {
			h = "https://" + h
		}
		u, perr := url.Parse(h)
		if perr != nil {
			return "", "", fmt.Errorf("invalid youtube url: %w", perr)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		switch {
		case len(parts) >= 1 && strings.HasPrefix(parts[0], "@"):
			return "forHandle", parts[0], nil
		case len(parts) >= 2 && parts[0] == "channel":
			return "id", parts[1], nil
		case len(parts) >= 2 && (parts[0] == "user" || parts[0] == "c"):
			return "forUsername", parts[1], nil
		}
		return "", "", fmt.Errorf("unrecognized youtube channel url: %s", handle)
	}
	if strings.HasPrefix(h, "@") {
		return "forHandle", h, nil
	}
	if strings.HasPrefix(h, "UC") && len(h) == 24 {
		return "id", h, nil
	}
	return "forHandle", "@" + h, nil
}
