package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/PKartavkin/slack-bot/internal/config"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

// ErrTimeout marks a generation that ran out of time. Callers show a
// "took too long" message instead of a generic failure.
var ErrTimeout = errors.New("ai request timed out")

// Generator turns a prompt into text through the configured provider.
// The default provider is OpenAI (or any OpenAI-compatible endpoint via
// base_url); anthropic, gemini and ollama use their native SDKs.
type Generator struct {
	cfg config.AIConfig
}

func NewGenerator(cfg config.AIConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Generate produces a completion for prompt. The configured timeout is
// applied on top of ctx.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	timeout := time.Duration(g.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug().
		Str("provider", g.cfg.Provider).
		Str("model", g.cfg.Model).
		Int("prompt_chars", len(prompt)).
		Msg("AI request")

	var (
		content string
		err     error
	)
	switch g.cfg.Provider {
	case "anthropic":
		content, err = g.callAnthropic(ctx, prompt)
	case "gemini":
		content, err = g.callGemini(ctx, prompt)
	case "ollama":
		content, err = g.callOllama(ctx, prompt)
	default:
		// openai and OpenAI-compatible endpoints
		content, err = g.callOpenAI(ctx, prompt)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", err
	}

	logger.Debug().Int("response_chars", len(content)).Msg("AI response")
	return content, nil
}

func (g *Generator) callOpenAI(ctx context.Context, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(g.cfg.APIKey)
	if g.cfg.BaseURL != "" {
		clientConfig.BaseURL = g.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	temperature := float32(0.3)
	if g.cfg.Temperature > 0 {
		temperature = float32(g.cfg.Temperature)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *Generator) callAnthropic(ctx context.Context, prompt string) (string, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(g.cfg.APIKey),
	)

	maxTokens := int64(g.cfg.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}
	model := g.cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return content.String(), nil
}

func (g *Generator) callGemini(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: g.cfg.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := g.cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return resp.Text(), nil
}

func (g *Generator) callOllama(ctx context.Context, prompt string) (string, error) {
	baseURL := g.cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := g.cfg.Model
	if model == "" {
		model = "llama3"
	}

	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Options: map[string]interface{}{
			"temperature": g.cfg.Temperature,
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}
	return content.String(), nil
}
