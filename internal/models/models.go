package models

import "time"

type Platform string

const (
	PlatformYouTube        Platform = "YouTube"
	PlatformTwitter        Platform = "Twitter"
	PlatformReddit         Platform = "Reddit"
	PlatformGoogleTrends   Platform = "Google Trends"
	PlatformGoogleTrendsAI Platform = "Google Trends (AI)"
	PlatformBlog           Platform = "Blog"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// ParseSentiment maps a model answer onto the closed set, defaulting to Neutral.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return Sentiment(s)
	default:
		return SentimentNeutral
	}
}

type PostFormat string

const (
	FormatVideo    PostFormat = "Video"
	FormatTweet    PostFormat = "Tweet"
	FormatBlogPost PostFormat = "Blog Post"
)

type ItemStatus string

const (
	StatusToDo       ItemStatus = "To Do"
	StatusInProgress ItemStatus = "In Progress"
	StatusCompleted  ItemStatus = "Completed"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Trend is a normalized popularity signal for a topic. Never persisted on its own.
type Trend struct {
	Keyword   string    `json:"keyword"`
	Link      string    `json:"link,omitempty"`
	Platform  Platform  `json:"platform"`
	Industry  string    `json:"industry"`
	Sentiment Sentiment `json:"sentiment"`
}

type CompetitorPost struct {
	PostID      string     `json:"postId"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	PublishedAt time.Time  `json:"publishedAt"`
	Format      PostFormat `json:"format"`
}

type TopicAnalysis struct {
	Themes  []string `json:"themes"`
	Summary string   `json:"summary"`
}

type Competitor struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user"`
	Name             string           `json:"name"`
	Platform         Platform         `json:"platform"`
	YouTubeChannelID *string          `json:"youtubeChannelId,omitempty"`
	TwitterHandle    *string          `json:"twitterHandle,omitempty"`
	BlogRSSURL       *string          `json:"blogRssUrl,omitempty"`
	LastFetchedAt    *time.Time       `json:"lastFetched,omitempty"`
	RecentPosts      []CompetitorPost `json:"recentPosts"`
	TopicAnalysis    TopicAnalysis    `json:"topicAnalysis"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// Identifier returns the platform-specific identifier that is unique per user.
func (c *Competitor) Identifier() string {
	switch {
	case c.YouTubeChannelID != nil:
		return *c.YouTubeChannelID
	case c.TwitterHandle != nil:
		return *c.TwitterHandle
	case c.BlogRSSURL != nil:
		return *c.BlogRSSURL
	}
	return ""
}

// CompetitorFetch is what a competitor source returns for one handle.
type CompetitorFetch struct {
	Platform   Platform
	Identifier string
	Name       string
	Posts      []CompetitorPost
}

type CalendarItem struct {
	Day       int        `json:"day"`
	Title     string     `json:"title"`
	Format    string     `json:"format"`
	Platform  string     `json:"platform"`
	PostTime  string     `json:"postTime"`
	Status    ItemStatus `json:"status"`
	Rationale string     `json:"rationale"`
}

type GeneratedPlan struct {
	BlogTitle        string         `json:"blogTitle"`
	SuggestedFormats []string       `json:"suggestedFormats"`
	PostFrequency    string         `json:"postFrequency"`
	Calendar         []CalendarItem `json:"calendar"`
}

type Strategy struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user"`
	TargetAudience  string        `json:"targetAudience"`
	AudiencePersona string        `json:"audiencePersona"`
	Topic           string        `json:"topic"`
	Goals           string        `json:"goals"`
	StartDate       *time.Time    `json:"startDate,omitempty"`
	EndDate         *time.Time    `json:"endDate,omitempty"`
	GeneratedPlan   GeneratedPlan `json:"generatedPlan"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}
