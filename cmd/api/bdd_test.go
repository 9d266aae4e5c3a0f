package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PortNumber53/content-strategy-engine/internal/ai"
	"github.com/PortNumber53/content-strategy-engine/internal/cache"
	"github.com/PortNumber53/content-strategy-engine/internal/handlers"
	"github.com/PortNumber53/content-strategy-engine/internal/logging"
	"github.com/PortNumber53/content-strategy-engine/internal/middleware"
	"github.com/PortNumber53/content-strategy-engine/internal/models"
	"github.com/PortNumber53/content-strategy-engine/internal/pipeline"
	"github.com/PortNumber53/content-strategy-engine/internal/sources"
	"github.com/PortNumber53/content-strategy-engine/internal/sources/providers"
	"github.com/PortNumber53/content-strategy-engine/internal/store"
	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"
)

const bddSecret = "bdd-secret"

// bddModel answers each prompt family with canned JSON. down makes every call fail.
type bddModel struct {
	down atomic.Bool
}

func (m *bddModel) Complete(ctx context.Context, req ai.Request) (string, error) {
	if m.down.Load() {
		return "", errors.New("model unavailable")
	}
	p := req.Prompt
	switch {
	case strings.Contains(p, "expert trend analysis AI"):
		if strings.Contains(p, `"nothing"`) {
			return `{"trends":[]}`, nil
		}
		return `{"trends":["cold brew at home","oat milk latte"]}`, nil
	case strings.Contains(p, "sentiment analysis expert"):
		return `{"0":"Positive","1":"Neutral"}`, nil
	case strings.Contains(p, "expert marketing strategist"):
		return "**Name:** Casey the commuter", nil
	case strings.Contains(p, "expert content analyst"):
		return `{"themes":["Brewing","Gear reviews"],"summary":"Hands-on brewing content."}`, nil
	case strings.Contains(p, "expert content strategist AI"):
		return bddPlan(), nil
	case strings.Contains(p, "content strategy consultant"):
		return `{"gaps":["Gear reviews for beginners"]}`, nil
	case strings.Contains(p, "expert content creator AI"):
		return `{"ideas":["Ten cold brew mistakes","Cold brew vs iced coffee"]}`, nil
	}
	return "## Outline for the idea", nil
}

func bddPlan() string {
	plan := models.GeneratedPlan{
		BlogTitle:        "The Cold Brew Month",
		SuggestedFormats: []string{"Blog Post", "Short Video"},
		PostFrequency:    "3 posts per week",
	}
	for d := 1; d <= ai.DefaultPlanDays; d++ {
		plan.Calendar = append(plan.Calendar, models.CalendarItem{
			Day:       d,
			Title:     fmt.Sprintf("Day %d post", d),
			Format:    "Blog Post",
			Platform:  "Blog",
			PostTime:  "09:00",
			Rationale: "keeps cadence",
		})
	}
	b, _ := json.Marshal(plan)
	return string(b)
}

const bddFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Bean There</title>
<item><guid>p1</guid><title>Pour over, step by step</title><link>https://beanthere.example/p1</link><pubDate>Mon, 05 Oct 2026 10:00:00 GMT</pubDate></item>
<item><guid>p2</guid><title>Grinder shootout</title><link>https://beanthere.example/p2</link><pubDate>Tue, 06 Oct 2026 10:00:00 GMT</pubDate></item>
</channel></rss>`

type bddTestContext struct {
	db           *sql.DB
	server       *httptest.Server
	feed         *httptest.Server
	model        *bddModel
	token        string
	lastResponse *http.Response
	lastBody     []byte
	saved        map[string]string
}

func (ctx *bddTestContext) reset() {
	if ctx.lastResponse != nil && ctx.lastResponse.Body != nil {
		ctx.lastResponse.Body.Close()
	}
	ctx.lastResponse = nil
	ctx.lastBody = nil
	ctx.token = ""
	ctx.model = &bddModel{}
	ctx.saved = map[string]string{}
}

func (ctx *bddTestContext) close() {
	if ctx.server != nil {
		ctx.server.Close()
		ctx.server = nil
	}
	if ctx.feed != nil {
		ctx.feed.Close()
		ctx.feed = nil
	}
	if ctx.db != nil {
		_ = ctx.db.Close()
		ctx.db = nil
	}
}

func (ctx *bddTestContext) theAPIServerIsRunning() error {
	if ctx.server != nil {
		return nil
	}
	db, err := store.Open("sqlite", ":memory:")
	if err != nil {
		return err
	}
	if err := migrateUp(db, store.SQLite); err != nil {
		return err
	}
	ctx.db = db
	st := store.New(db, store.SQLite)

	ctx.feed = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = io.WriteString(w, bddFeed)
	}))

	logger := logging.Discard()
	svc := ai.NewService(ctx.model, logger, 5*time.Second)
	runner := sources.NewRunner(nil, st.ConsumeRequests, logger)
	runner.AddTopicSource(providers.AITrends{Suggester: svc}, cache.New[[]models.Trend](time.Hour))
	runner.AddCompetitorSource(providers.NewBlog(ctx.feed.Client()), nil)

	p := pipeline.New(runner, svc, st, logger)
	auth := middleware.NewAuthenticator(bddSecret, logger)
	h := handlers.New(p, logger)
	ctx.server = httptest.NewServer(withCORS(middleware.RequestLogger(logger)(buildRouter(h, auth.Middleware))))
	return nil
}

func (ctx *bddTestContext) iAmSignedInAs(userID string) error {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(bddSecret))
	if err != nil {
		return err
	}
	ctx.token = tok
	return nil
}

func (ctx *bddTestContext) iAmNotSignedIn() error {
	ctx.token = ""
	return nil
}

func (ctx *bddTestContext) theAIModelIsUnavailable() error {
	ctx.model.down.Store(true)
	return nil
}

// expand replaces {feed} and {name} placeholders with the feed URL and saved values.
func (ctx *bddTestContext) expand(s string) string {
	if ctx.feed != nil {
		s = strings.ReplaceAll(s, "{feed}", ctx.feed.URL+"/feed.xml")
	}
	for k, v := range ctx.saved {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

func (ctx *bddTestContext) iSendAGETRequestTo(path string) error {
	return ctx.iSendARequestTo("GET", path, "")
}

func (ctx *bddTestContext) iSendAPOSTRequestToWithJSON(path string, body *godog.DocString) error {
	return ctx.iSendARequestTo("POST", path, body.Content)
}

func (ctx *bddTestContext) iSendAPUTRequestToWithJSON(path string, body *godog.DocString) error {
	return ctx.iSendARequestTo("PUT", path, body.Content)
}

func (ctx *bddTestContext) iSendADELETERequestTo(path string) error {
	return ctx.iSendARequestTo("DELETE", path, "")
}

func (ctx *bddTestContext) iSendARequestTo(method, path, body string) error {
	url := ctx.server.URL + ctx.expand(path)
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(ctx.expand(body))
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if ctx.token != "" {
		req.Header.Set("Authorization", "Bearer "+ctx.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	ctx.lastResponse = resp
	ctx.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (ctx *bddTestContext) theResponseStatusCodeShouldBe(expectedCode int) error {
	if ctx.lastResponse == nil {
		return fmt.Errorf("no response received")
	}
	if ctx.lastResponse.StatusCode != expectedCode {
		return fmt.Errorf("expected status code %d, got %d. Body: %s",
			expectedCode, ctx.lastResponse.StatusCode, string(ctx.lastBody))
	}
	return nil
}

// lookup walks a dotted path such as data.generatedPlan.calendar.0.title.
func (ctx *bddTestContext) lookup(path string) (any, error) {
	var cur any
	if err := json.Unmarshal(ctx.lastBody, &cur); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w. Body: %s", err, string(ctx.lastBody))
	}
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("key %q not found in response: %s", path, string(ctx.lastBody))
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q: %s", part, path, string(ctx.lastBody))
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q at %q", path, part)
		}
	}
	return cur, nil
}

func (ctx *bddTestContext) theResponseShouldContainJSONWithSetTo(key, value string) error {
	actual, err := ctx.lookup(key)
	if err != nil {
		return err
	}
	actualStr := fmt.Sprintf("%v", actual)
	if actualStr != ctx.expand(value) {
		return fmt.Errorf("expected %q to be %q, got %q", key, value, actualStr)
	}
	return nil
}

func (ctx *bddTestContext) theResponseShouldContainError(errorMsg string) error {
	actual, err := ctx.lookup("error")
	if err != nil {
		return err
	}
	if s, _ := actual.(string); !strings.Contains(s, errorMsg) {
		return fmt.Errorf("expected error message %q not found in response: %s", errorMsg, string(ctx.lastBody))
	}
	return nil
}

func (ctx *bddTestContext) theResponseFieldShouldMention(key, text string) error {
	actual, err := ctx.lookup(key)
	if err != nil {
		return err
	}
	if s, _ := actual.(string); !strings.Contains(s, text) {
		return fmt.Errorf("expected %q to mention %q: %s", key, text, string(ctx.lastBody))
	}
	return nil
}

func (ctx *bddTestContext) theResponseFieldShouldBeAJSONArrayWithItems(key string, count int) error {
	actual, err := ctx.lookup(key)
	if err != nil {
		return err
	}
	list, ok := actual.([]any)
	if !ok {
		return fmt.Errorf("expected %q to be an array: %s", key, string(ctx.lastBody))
	}
	if len(list) != count {
		return fmt.Errorf("expected %d items, got %d", count, len(list))
	}
	return nil
}

func (ctx *bddTestContext) iRememberTheResponseFieldAs(key, name string) error {
	actual, err := ctx.lookup(key)
	if err != nil {
		return err
	}
	ctx.saved[name] = fmt.Sprintf("%v", actual)
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	testCtx := &bddTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.reset()
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		testCtx.close()
		return ctx, nil
	})

	ctx.Step(`^the API server is running$`, testCtx.theAPIServerIsRunning)
	ctx.Step(`^I am signed in as "([^"]*)"$`, testCtx.iAmSignedInAs)
	ctx.Step(`^I am not signed in$`, testCtx.iAmNotSignedIn)
	ctx.Step(`^the AI model is unavailable$`, testCtx.theAIModelIsUnavailable)
	ctx.Step(`^I send a GET request to "([^"]*)"$`, testCtx.iSendAGETRequestTo)
	ctx.Step(`^I send a POST request to "([^"]*)" with JSON:$`, testCtx.iSendAPOSTRequestToWithJSON)
	ctx.Step(`^I send a PUT request to "([^"]*)" with JSON:$`, testCtx.iSendAPUTRequestToWithJSON)
	ctx.Step(`^I send a DELETE request to "([^"]*)"$`, testCtx.iSendADELETERequestTo)
	ctx.Step(`^the response status code should be (\d+)$`, testCtx.theResponseStatusCodeShouldBe)
	ctx.Step(`^the response should contain JSON with "([^"]*)" set to "([^"]*)"$`, testCtx.theResponseShouldContainJSONWithSetTo)
	ctx.Step(`^the response should contain error "([^"]*)"$`, testCtx.theResponseShouldContainError)
	ctx.Step(`^the response "([^"]*)" should be a JSON array with (\d+) items$`, testCtx.theResponseFieldShouldBeAJSONArrayWithItems)
	ctx.Step(`^the response "([^"]*)" should mention "([^"]*)"$`, testCtx.theResponseFieldShouldMention)
	ctx.Step(`^I remember the response "([^"]*)" as "([^"]*)"$`, testCtx.iRememberTheResponseFieldAs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
