// Package genai provides GenAI-enhanced operations using the OpenAI API.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/voxa-labs/voxa/internal/models"
)

// ErrNoChoicesReturned indicates the API returned an empty choice list.
var ErrNoChoicesReturned = errors.New("no choices returned")

// chatService defines the minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// completionsAdapter adapts the real OpenAI completion service to chatService.
type completionsAdapter struct {
	svc openai.ChatCompletionService
}

func (a completionsAdapter) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := a.svc.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// ClientInterface abstracts the GenAI client so callers can be tested with fakes.
type ClientInterface interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateWithModel(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
	ModelForTier(tier models.Tier) string
}

// Opts holds configuration for the GenAI client.
type Opts struct {
	APIKey     string
	BaseURL    string
	TierModels map[models.Tier]string
}

// Option configures Opts.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key, overriding the environment.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL points the client at a compatible alternative endpoint.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithTierModel overrides the model used for one routing tier.
func WithTierModel(tier models.Tier, model string) Option {
	return func(o *Opts) {
		if o.TierModels == nil {
			o.TierModels = make(map[models.Tier]string)
		}
		o.TierModels[tier] = model
	}
}

// defaultTierModels maps routing tiers to model IDs.
var defaultTierModels = map[models.Tier]string{
	models.TierFast:     string(openai.ChatModelGPT4oMini),
	models.TierBalanced: string(openai.ChatModelGPT4o),
	models.TierPowerful: string(openai.ChatModelGPT4Turbo),
	models.TierPremium:  string(openai.ChatModelO1),
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	chat       chatService
	tierModels map[models.Tier]string
}

// NewClient initializes a GenAI client. The API key comes from options or the
// OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	cli := openai.NewClient(reqOpts...)

	tierModels := make(map[models.Tier]string, len(defaultTierModels))
	for tier, model := range defaultTierModels {
		tierModels[tier] = model
	}
	for tier, model := range cfg.TierModels {
		tierModels[tier] = model
	}

	return &Client{
		chat:       completionsAdapter{svc: cli.Chat.Completions},
		tierModels: tierModels,
	}, nil
}

// ModelForTier returns the model ID configured for a routing tier.
func (c *Client) ModelForTier(tier models.Tier) string {
	if c.tierModels != nil {
		if model, ok := c.tierModels[tier]; ok {
			return model
		}
	}
	return defaultTierModels[models.TierFast]
}

// Generate produces a completion on the default (fast) model.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.GenerateWithModel(ctx, c.ModelForTier(models.TierFast), systemPrompt, userPrompt)
}

// GenerateWithModel produces a completion on a specific model.
func (c *Client) GenerateWithModel(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))
	return c.generate(ctx, model, messages)
}

// GenerateWithMessages produces a completion from a prepared message list on
// the default model.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	return c.generate(ctx, c.ModelForTier(models.TierFast), messages)
}

func (c *Client) generate(ctx context.Context, model string, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	resp, err := c.chat.Create(ctx, params)
	if err != nil {
		slog.Error("Client.generate: completion failed", "model", model, "error", err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	slog.Debug("Client.generate: completion succeeded", "model", model, "messageCount", len(messages))
	return resp.Choices[0].Message.Content, nil
}
