package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PortNumber53/content-strategy-engine/internal/config"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

var ErrEmptyResponse = errors.New("empty model response")

// Request is one single-shot completion. JSON asks the backend for machine-parseable output.
type Request struct {
	Prompt string
	JSON   bool
}

// Completer is the only thing the orchestration layer needs from a model backend.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// NewCompleter builds the backend selected by cfg.Provider.
func NewCompleter(ctx context.Context, cfg config.AIConfig) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini":
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
	case "openai":
		return NewOpenAI(ctx, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", cfg.Provider)
	}
}

// Unavailable is a backend that always fails with err. Every Service call then
// takes its fallback path, which keeps the API up without model credentials.
func Unavailable(err error) Completer {
	return CompleterFunc(func(context.Context, Request) (string, error) {
		return "", fmt.Errorf("model unavailable: %w", err)
	})
}

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{client: client, model: modelName}, nil
}

func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	var cfg *genai.GenerateContentConfig
	if req.JSON {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// OpenAI talks to any OpenAI-compatible chat endpoint.
type OpenAI struct {
	chat model.ChatModel
}

func NewOpenAI(ctx context.Context, baseURL, apiKey, modelName string) (*OpenAI, error) {
	if apiKey == "" || modelName == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY and OPENAI_MODEL are required")
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat model: %w", err)
	}
	return &OpenAI{chat: cm}, nil
}

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	system := "You are an expert content strategist."
	if req.JSON {
		system = "You are a JSON generator. Output only a JSON object, no markdown."
	}
	resp, err := o.chat.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: req.Prompt},
	})
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Content, nil
}

// cleanJSON strips the markdown fences some models wrap around JSON answers.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
