package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PortNumber53/content-strategy-engine/internal/logging"
	"github.com/PortNumber53/content-strategy-engine/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPlanDays = 30
	MaxPlanDays     = 90

	NoAudienceText      = "No audience specified."
	NotEnoughDataText   = "Not enough data to analyze."
	AnalysisFailedText  = "AI analysis failed."
	ExpandFailedText    = "Sorry, we couldn't expand this idea right now. Please try again in a moment."
	personaFailedMarker = "*AI persona generation failed. Using the provided description directly.*"
)

var ErrInvalidIdeaType = errors.New("invalid idea type specified")

// Service is the AI orchestration layer: prompt, call, parse, then the per-operation fallback policy.
type Service struct {
	completer Completer
	logger    *logrus.Logger
	timeout   time.Duration
}

func NewService(c Completer, logger *logrus.Logger, timeout time.Duration) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{completer: c, logger: logger, timeout: timeout}
}

func (s *Service) complete(ctx context.Context, req Request) (string, error) {
	if s.completer == nil {
		return "", errors.New("no AI completer configured")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.completer.Complete(ctx, req)
}

func (s *Service) completeJSON(ctx context.Context, prompt string, out any) error {
	text, err := s.complete(ctx, Request{Prompt: prompt, JSON: true})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), out); err != nil {
		return fmt.Errorf("parse model json: %w", err)
	}
	return nil
}

// GeneratePersona never fails: on error the raw description is embedded in a marked template.
func (s *Service) GeneratePersona(ctx context.Context, audience string) Result[string] {
	audience = strings.TrimSpace(audience)
	if audience == "" {
		return ok(NoAudienceText)
	}
	text, err := s.complete(ctx, Request{Prompt: personaPrompt(audience)})
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		s.logger.WithError(err).Warn("[AI] persona generation failed, using description")
		return fallback(PersonaFallback(audience), err)
	}
	return ok(strings.TrimSpace(text))
}

func PersonaFallback(audience string) string {
	return "**Audience:** " + audience + "\n\n" + personaFailedMarker
}

// AnalyzeTopics never calls the model for an empty title list.
func (s *Service) AnalyzeTopics(ctx context.Context, titles []string) Result[models.TopicAnalysis] {
	if len(titles) == 0 {
		return ok(models.TopicAnalysis{Themes: []string{}, Summary: NotEnoughDataText})
	}
	var out models.TopicAnalysis
	if err := s.completeJSON(ctx, topicsPrompt(titles), &out); err != nil {
		s.logger.WithError(err).WithField("titles", len(titles)).Warn("[AI] topic analysis failed")
		return fallback(models.TopicAnalysis{Themes: []string{}, Summary: AnalysisFailedText}, err)
	}
	if out.Themes == nil {
		out.Themes = []string{}
	}
	return ok(out)
}

type PlanInput struct {
	Persona          string
	Topic            string
	Goals            string
	TrendingKeywords []string
	StartDate        *time.Time
	EndDate          *time.Time
}

// GeneratePlan fails loudly: a call error, unparseable output, or a calendar that is not exactly days 1..N.
func (s *Service) GeneratePlan(ctx context.Context, in PlanInput) Result[models.GeneratedPlan] {
	days, capped := PlanDuration(in.StartDate, in.EndDate)
	var plan models.GeneratedPlan
	if err := s.completeJSON(ctx, planPrompt(in, days, capped), &plan); err != nil {
		s.logger.WithError(err).WithField("topic", in.Topic).Error("[AI] plan generation failed")
		return fail[models.GeneratedPlan](fmt.Errorf("generate plan: %w", err))
	}
	if err := plan.ValidateDays(days); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"topic": in.Topic, "days": days}).Error("[AI] plan rejected")
		return fail[models.GeneratedPlan](fmt.Errorf("generate plan: %w", err))
	}
	plan.FillDefaults()
	if plan.SuggestedFormats == nil {
		plan.SuggestedFormats = []string{}
	}
	return ok(plan)
}

// AnalyzeSentiment classifies all keywords in one call and merges by position.
// Unclassified items, or all of them on failure, stay Neutral.
func (s *Service) AnalyzeSentiment(ctx context.Context, trends []models.Trend) Result[[]models.Trend] {
	out := make([]models.Trend, len(trends))
	copy(out, trends)
	for i := range out {
		out[i].Sentiment = models.SentimentNeutral
	}
	if len(trends) == 0 {
		return ok(out)
	}
	var byIndex map[string]string
	if err := s.completeJSON(ctx, sentimentPrompt(trends), &byIndex); err != nil {
		s.logger.WithError(err).WithField("trends", len(trends)).Warn("[AI] sentiment analysis failed, defaulting to Neutral")
		return fallback(out, err)
	}
	for i := range out {
		out[i].Sentiment = models.ParseSentiment(byIndex[strconv.Itoa(i)])
	}
	return ok(out)
}

// FindContentGaps returns Failed rather than a sentinel suggestion when the model call fails.
func (s *Service) FindContentGaps(ctx context.Context, competitorThemes, userTopics []string) Result[[]string] {
	if len(competitorThemes) == 0 {
		return ok([]string{})
	}
	var resp struct {
		Gaps []string `json:"gaps"`
	}
	if err := s.completeJSON(ctx, gapsPrompt(competitorThemes, userTopics), &resp); err != nil {
		s.logger.WithError(err).Warn("[AI] content gap analysis failed")
		return fail[[]string](fmt.Errorf("content gap analysis: %w", err))
	}
	if resp.Gaps == nil {
		resp.Gaps = []string{}
	}
	return ok(resp.Gaps)
}

func (s *Service) GenerateIdeas(ctx context.Context, topic string, t IdeaType) Result[[]string] {
	if !t.Valid() {
		return fail[[]string](fmt.Errorf("%w: %q", ErrInvalidIdeaType, t))
	}
	var resp struct {
		Ideas []string `json:"ideas"`
	}
	if err := s.completeJSON(ctx, ideasPrompt(topic, t), &resp); err != nil {
		s.logger.WithError(err).WithField("type", t).Error("[AI] idea generation failed")
		return fail[[]string](fmt.Errorf("generate ideas: %w", err))
	}
	if resp.Ideas == nil {
		resp.Ideas = []string{}
	}
	return ok(resp.Ideas)
}

// ExpandIdea returns markdown; on failure a fixed apology instead of an error.
func (s *Service) ExpandIdea(ctx context.Context, title, format string) Result[string] {
	text, err := s.complete(ctx, Request{Prompt: expandPrompt(title, format)})
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		s.logger.WithError(err).WithField("format", format).Warn("[AI] idea expansion failed")
		return fallback(ExpandFailedText, err)
	}
	return ok(strings.TrimSpace(text))
}

// SuggestTrends asks the model for plausible search queries about topic.
func (s *Service) SuggestTrends(ctx context.Context, topic string) ([]string, error) {
	var resp struct {
		Trends []string `json:"trends"`
	}
	if err := s.completeJSON(ctx, trendsPrompt(topic), &resp); err != nil {
		return nil, fmt.Errorf("suggest trends: %w", err)
	}
	return resp.Trends, nil
}
