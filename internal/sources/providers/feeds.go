package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PortNumber53/content-strategy-engine/internal/models"
	"github.com/mmcdole/gofeed"
)

const redditSearchURL = "https://www.reddit.com/search.rss"

func newParser(client *http.Client) *gofeed.Parser {
	p := gofeed.NewParser()
	p.Client = defaultClient(client)
	p.UserAgent = browserUserAgent
	return p
}

// Reddit searches hot posts of the past week through the public search RSS feed,
// which works without credentials.
type Reddit struct {
	parser *gofeed.Parser
}

func NewReddit(client *http.Client) Reddit {
	return Reddit{parser: newParser(client)}
}

func (p Reddit) Name() string { return "reddit" }

func (p Reddit) FetchByTopic(ctx context.Context, topic string) ([]models.Trend, error) {
	q := url.Values{}
	q.Set("q", topic)
	q.Set("sort", "hot")
	q.Set("t", "week")
	feed, err := p.parser.ParseURLWithContext(redditSearchURL+"?"+q.Encode(), ctx)
	if err != nil {
		return nil, fmt.Errorf("reddit_search err=%w", err)
	}
	out := []models.Trend{}
	for _, item := range feed.Items {
		if len(out) == 10 {
			break
		}
		title := normalizeTitle(item.Title)
		if title == "" {
			continue
		}
		out = append(out, models.Trend{Keyword: title, Link: item.Link, Platform: models.PlatformReddit, Industry: topic})
	}
	return out, nil
}

// Blog tracks any RSS or Atom feed.
type Blog struct {
	parser *gofeed.Parser
}

func NewBlog(client *http.Client) Blog {
	return Blog{parser: newParser(client)}
}

func (p Blog) Name() string              { return "blog" }
func (p Blog) Platform() models.Platform { return models.PlatformBlog }

func (p Blog) FetchByHandle(ctx context.Context, handle string) (models.CompetitorFetch, error) {
	rssURL := strings.TrimSpace(handle)
	u, err := url.Parse(rssURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.CompetitorFetch{}, fmt.Errorf("blog feed must be an http(s) url: %q", handle)
	}
	feed, err := p.parser.ParseURLWithContext(rssURL, ctx)
	if err != nil {
		return models.CompetitorFetch{}, fmt.Errorf("blog_feed url=%s err=%w", rssURL, err)
	}
	name := strings.TrimSpace(feed.Title)
	if name == "" {
		name = "Blog"
	}
	out := models.CompetitorFetch{
		Platform:   models.PlatformBlog,
		Identifier: rssURL,
		Name:       name,
		Posts:      make([]models.CompetitorPost, 0, len(feed.Items)),
	}
	for _, item := range feed.Items {
		id := item.GUID
		if id == "" {
			id = item.Link
		}
		post := models.CompetitorPost{
			PostID: id,
			Title:  normalizeTitle(item.Title),
			Link:   item.Link,
			Format: models.FormatBlogPost,
		}
		switch {
		case item.PublishedParsed != nil:
			post.PublishedAt = item.PublishedParsed.UTC()
		case item.UpdatedParsed != nil:
			post.PublishedAt = item.UpdatedParsed.UTC()
		}
		out.Posts = append(out.Posts, post)
	}
	out.Posts = sortAndBound(out.Posts, MaxRecentPosts)
	return out, nil
}
