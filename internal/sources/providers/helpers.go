package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PortNumber53/content-strategy-engine/internal/models"
)

// MaxRecentPosts bounds a competitor's recentPosts.
const MaxRecentPosts = 10

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func normalizeTitle(s string) string {
	return truncate(strings.TrimSpace(html.UnescapeString(s)), 300)
}

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: 20 * time.Second}
}

// getBody performs a GET and returns at most 1MiB of a 2xx body. tag prefixes the non-2xx error.
func getBody(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, tag string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := defaultClient(client).Do(req)
	if err != nil {
		return nil, err
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	_ = res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("%s_non_2xx status=%d body=%s", tag, res.StatusCode, truncate(string(body), 600))
	}
	return body, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, tag string, out any) error {
	body, err := getBody(ctx, client, rawURL, headers, tag)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s_invalid_json err=%w body=%s", tag, err, truncate(string(body), 300))
	}
	return nil
}

// sortAndBound orders posts newest first and keeps the first n.
func sortAndBound(posts []models.CompetitorPost, n int) []models.CompetitorPost {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
	if len(posts) > n {
		posts = posts[:n]
	}
	return posts
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
