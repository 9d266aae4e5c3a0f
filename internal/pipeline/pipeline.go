// Package pipeline runs the user-facing operations: trend aggregation, strategy generation,
// calendar edits and competitor tracking.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PortNumber53/content-strategy-engine/internal/ai"
	"github.com/PortNumber53/content-strategy-engine/internal/logging"
	"github.com/PortNumber53/content-strategy-engine/internal/models"
	"github.com/PortNumber53/content-strategy-engine/internal/sources"
	"github.com/PortNumber53/content-strategy-engine/internal/store"
	"github.com/sirupsen/logrus"
)

// MaxPlanKeywords is how many trending keywords feed the plan prompt.
const MaxPlanKeywords = 10

// Repository is the persistence the pipeline needs. *store.Store implements it.
type Repository interface {
	CreateStrategy(ctx context.Context, st *models.Strategy) error
	ListStrategies(ctx context.Context, userID string) ([]models.Strategy, error)
	GetStrategy(ctx context.Context, userID, id string) (models.Strategy, error)
	UpdateStrategy(ctx context.Context, st *models.Strategy) error
	DeleteStrategy(ctx context.Context, userID, id string) error
	ListTopics(ctx context.Context, userID string) ([]string, error)

	CreateCompetitor(ctx context.Context, c *models.Competitor) error
	FindCompetitorByIdentifier(ctx context.Context, userID string, platform models.Platform, identifier string) (models.Competitor, error)
	ListCompetitors(ctx context.Context, userID string) ([]models.Competitor, error)
	GetCompetitor(ctx context.Context, userID, id string) (models.Competitor, error)
	UpdateCompetitor(ctx context.Context, c *models.Competitor) error
	DeleteCompetitor(ctx context.Context, userID, id string) error
}

type Pipeline struct {
	sources *sources.Runner
	ai      *ai.Service
	repo    Repository
	logger  *logrus.Logger
	now     func() time.Time
}

func New(runner *sources.Runner, svc *ai.Service, repo Repository, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{
		sources: runner,
		ai:      svc,
		repo:    repo,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetTrendsForTopic fans out to every topic source and classifies the merged result.
// No trends at all is an empty slice, not an error.
func (p *Pipeline) GetTrendsForTopic(ctx context.Context, topic string) ([]models.Trend, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, invalid("Please provide a topic as a query parameter (e.g., ?topic=skincare).")
	}
	trends := p.sources.FetchTrends(ctx, topic)
	res := p.ai.AnalyzeSentiment(ctx, trends)
	return res.Value, nil
}

func (p *Pipeline) GeneratePersona(ctx context.Context, audience string) (string, error) {
	if strings.TrimSpace(audience) == "" {
		return "", invalid("Please provide audience keywords.")
	}
	return p.ai.GeneratePersona(ctx, audience).Value, nil
}

func (p *Pipeline) GenerateIdeas(ctx context.Context, topic, ideaType string) ([]string, error) {
	if strings.TrimSpace(topic) == "" || strings.TrimSpace(ideaType) == "" {
		return nil, invalid("Please provide a topic and idea type.")
	}
	ideas, err := p.ai.GenerateIdeas(ctx, topic, ai.IdeaType(ideaType)).Get()
	if errors.Is(err, ai.ErrInvalidIdeaType) {
		return nil, &InputError{Message: "Invalid idea type specified.", Err: err}
	}
	return ideas, err
}

func (p *Pipeline) ExpandIdea(ctx context.Context, title, format string) (string, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(format) == "" {
		return "", invalid("Please provide a title and format.")
	}
	return p.ai.ExpandIdea(ctx, title, format).Value, nil
}

type StrategyRequest struct {
	TargetAudience string
	Topic          string
	Goals          string
	StartDate      *time.Time
	EndDate        *time.Time
}

// GenerateStrategy runs persona, trends, plan and then persists. Any failure, including
// cancellation by the caller, leaves nothing behind and wraps ErrStrategyFailed.
func (p *Pipeline) GenerateStrategy(ctx context.Context, userID string, req StrategyRequest) (models.Strategy, error) {
	if strings.TrimSpace(req.TargetAudience) == "" || strings.TrimSpace(req.Topic) == "" || strings.TrimSpace(req.Goals) == "" {
		return models.Strategy{}, invalid("Please provide targetAudience, topic, and goals")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return models.Strategy{}, invalid("endDate must not be before startDate")
	}
	log := p.logger.WithFields(logrus.Fields{"user": userID, "topic": req.Topic})

	persona := p.ai.GeneratePersona(ctx, req.TargetAudience).Value
	trends := p.sources.FetchTrends(ctx, req.Topic)
	keywords := TrendingKeywords(trends, MaxPlanKeywords)
	log.WithField("keywords", len(keywords)).Info("[Strategy] trends collected")

	plan, err := p.ai.GeneratePlan(ctx, ai.PlanInput{
		Persona:          persona,
		Topic:            req.Topic,
		Goals:            req.Goals,
		TrendingKeywords: keywords,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	}).Get()
	if err != nil {
		return models.Strategy{}, fmt.Errorf("%w: %w", ErrStrategyFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return models.Strategy{}, fmt.Errorf("%w: %w", ErrStrategyFailed, err)
	}

	start := req.StartDate
	if start == nil {
		now := p.now()
		start = &now
	}
	st := models.Strategy{
		UserID:          userID,
		TargetAudience:  req.TargetAudience,
		AudiencePersona: persona,
		Topic:           req.Topic,
		Goals:           req.Goals,
		StartDate:       start,
		EndDate:         req.EndDate,
		GeneratedPlan:   plan,
	}
	if err := p.repo.CreateStrategy(ctx, &st); err != nil {
		return models.Strategy{}, fmt.Errorf("%w: %w", ErrStrategyFailed, err)
	}
	log.WithFields(logrus.Fields{"id": st.ID, "days": len(plan.Calendar)}).Info("[Strategy] created")
	return st, nil
}

// TrendingKeywords takes the first n keywords in merge order.
func TrendingKeywords(trends []models.Trend, n int) []string {
	out := make([]string, 0, n)
	for _, t := range trends {
		if len(out) == n {
			break
		}
		out = append(out, t.Keyword)
	}
	return out
}

func (p *Pipeline) ListStrategies(ctx context.Context, userID string) ([]models.Strategy, error) {
	return p.repo.ListStrategies(ctx, userID)
}

func (p *Pipeline) GetStrategy(ctx context.Context, userID, id string) (models.Strategy, error) {
	st, err := p.repo.GetStrategy(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Strategy{}, notFound("Strategy not found or you are not authorized to view it.")
	}
	return st, err
}

func (p *Pipeline) DeleteStrategy(ctx context.Context, userID, id string) error {
	err := p.repo.DeleteStrategy(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Strategy not found or you are not authorized to delete it.")
	}
	return err
}

// CalendarUpdate edits one calendar item. Fields are patched first; a non-nil Day that
// differs from the current one then moves the item, overwriting whatever was there.
type CalendarUpdate struct {
	models.CalendarItemPatch
	Day *int
}

func (p *Pipeline) UpdateCalendarItem(ctx context.Context, userID, strategyID string, day int, upd CalendarUpdate) (models.Strategy, error) {
	st, err := p.repo.GetStrategy(ctx, userID, strategyID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Strategy{}, notFound("Strategy not found.")
	}
	if err != nil {
		return models.Strategy{}, err
	}
	plan := &st.GeneratedPlan
	if err := plan.UpdateItem(day, upd.CalendarItemPatch); err != nil {
		return models.Strategy{}, calendarError(err)
	}
	if upd.Day != nil && *upd.Day != day {
		if err := plan.MoveItem(day, *upd.Day); err != nil {
			return models.Strategy{}, calendarError(err)
		}
	}
	if err := p.repo.UpdateStrategy(ctx, &st); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Strategy{}, notFound("Strategy not found.")
		}
		return models.Strategy{}, err
	}
	return st, nil
}

func calendarError(err error) error {
	switch {
	case errors.Is(err, models.ErrItemNotFound):
		return &InputError{Message: "Calendar item for original day not found.", Err: errors.Join(ErrNotFound, err)}
	case errors.Is(err, models.ErrInvalidStatus), errors.Is(err, models.ErrInvalidDay):
		return invalidErr(err)
	}
	return err
}

// ParseCompetitorPlatform accepts the trackable platforms, case-insensitively.
func ParseCompetitorPlatform(s string) (models.Platform, error) {
	for _, p := range []models.Platform{models.PlatformYouTube, models.PlatformTwitter, models.PlatformBlog} {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", &InputError{Message: ErrUnsupportedPlatform.Error(), Err: ErrUnsupportedPlatform}
}

// AddCompetitor fetches the account, rejects duplicates for this user, analyzes the post titles
// and stores the result. Nothing is persisted if any step fails; callers retry from scratch.
func (p *Pipeline) AddCompetitor(ctx context.Context, userID, platform, handle string) (models.Competitor, error) {
	if strings.TrimSpace(platform) == "" || strings.TrimSpace(handle) == "" {
		return models.Competitor{}, invalid("Please provide platform and a handle/URL")
	}
	plat, err := ParseCompetitorPlatform(platform)
	if err != nil {
		return models.Competitor{}, err
	}
	src, ok := p.sources.CompetitorSource(plat)
	if !ok {
		return models.Competitor{}, &InputError{Message: ErrUnsupportedPlatform.Error(), Err: ErrUnsupportedPlatform}
	}
	fetched, err := src.FetchByHandle(ctx, handle)
	if err != nil {
		return models.Competitor{}, fmt.Errorf("fetch %s competitor %q: %w", plat, handle, err)
	}

	_, err = p.repo.FindCompetitorByIdentifier(ctx, userID, plat, fetched.Identifier)
	switch {
	case err == nil:
		return models.Competitor{}, &InputError{Message: ErrAlreadyTracked.Error(), Err: ErrAlreadyTracked}
	case !errors.Is(err, store.ErrNotFound):
		return models.Competitor{}, err
	}

	c := models.Competitor{UserID: userID, Platform: plat}
	setIdentifier(&c, fetched.Identifier)
	p.applyFetch(ctx, &c, fetched)

	if err := p.repo.CreateCompetitor(ctx, &c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Competitor{}, &InputError{Message: ErrAlreadyTracked.Error(), Err: ErrAlreadyTracked}
		}
		return models.Competitor{}, err
	}
	p.logger.WithFields(logrus.Fields{"user": userID, "platform": plat, "id": c.ID, "posts": len(c.RecentPosts)}).Info("[Competitors] tracked")
	return c, nil
}

func setIdentifier(c *models.Competitor, id string) {
	switch c.Platform {
	case models.PlatformYouTube:
		c.YouTubeChannelID = &id
	case models.PlatformTwitter:
		c.TwitterHandle = &id
	case models.PlatformBlog:
		c.BlogRSSURL = &id
	}
}

// applyFetch overwrites posts, analysis and fetch time with a fresh fetch.
func (p *Pipeline) applyFetch(ctx context.Context, c *models.Competitor, fetched models.CompetitorFetch) {
	if fetched.Name != "" {
		c.Name = fetched.Name
	}
	posts := fetched.Posts
	if posts == nil {
		posts = []models.CompetitorPost{}
	}
	titles := make([]string, 0, len(posts))
	for _, post := range posts {
		titles = append(titles, post.Title)
	}
	c.RecentPosts = posts
	c.TopicAnalysis = p.ai.AnalyzeTopics(ctx, titles).Value
	now := p.now()
	c.LastFetchedAt = &now
}

func (p *Pipeline) ListCompetitors(ctx context.Context, userID string) ([]models.Competitor, error) {
	return p.repo.ListCompetitors(ctx, userID)
}

// RefreshCompetitor re-fetches the user's competitor, skipping the source cache.
func (p *Pipeline) RefreshCompetitor(ctx context.Context, userID, id string) (models.Competitor, error) {
	c, err := p.repo.GetCompetitor(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Competitor{}, notFound("Competitor not found.")
	}
	if err != nil {
		return models.Competitor{}, err
	}
	return p.Refresh(sources.BypassCache(ctx), c)
}

// Refresh re-fetches c and overwrites its posts and analysis. Used by the API and the background refresher.
func (p *Pipeline) Refresh(ctx context.Context, c models.Competitor) (models.Competitor, error) {
	src, ok := p.sources.CompetitorSource(c.Platform)
	if !ok {
		return models.Competitor{}, &InputError{Message: ErrUnsupportedPlatform.Error(), Err: ErrUnsupportedPlatform}
	}
	fetched, err := src.FetchByHandle(ctx, c.Identifier())
	if err != nil {
		return models.Competitor{}, fmt.Errorf("refresh %s competitor %s: %w", c.Platform, c.ID, err)
	}
	p.applyFetch(ctx, &c, fetched)
	if err := p.repo.UpdateCompetitor(ctx, &c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Competitor{}, notFound("Competitor not found.")
		}
		return models.Competitor{}, err
	}
	return c, nil
}

func (p *Pipeline) DeleteCompetitor(ctx context.Context, userID, id string) error {
	err := p.repo.DeleteCompetitor(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Competitor not found.")
	}
	return err
}

// AnalyzeGaps compares the competitor's themes with the topics of the user's strategies.
func (p *Pipeline) AnalyzeGaps(ctx context.Context, userID, id string) ([]string, error) {
	c, err := p.repo.GetCompetitor(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Competitor not found or has no analysis data.")
	}
	if err != nil {
		return nil, err
	}
	topics, err := p.repo.ListTopics(ctx, userID)
	if err != nil {
		return nil, err
	}
	gaps, err := p.ai.FindContentGaps(ctx, c.TopicAnalysis.Themes, topics).Get()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGapAnalysisFailed, err)
	}
	return gaps, nil
}
