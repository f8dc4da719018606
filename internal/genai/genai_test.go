package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"

	"github.com/voxa-labs/voxa/internal/models"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp      openai.ChatCompletion
	err       error
	lastModel string
}

func (m *mockChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	m.lastModel = string(params.Model)
	return m.resp, m.err
}

func TestGenerate_Success(t *testing.T) {
	// Prepare a mock response with one choice
	mockResp := openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "Hello World"}},
		},
	}
	client := &Client{chat: &mockChatService{resp: mockResp}, tierModels: defaultTierModels}
	out, err := client.Generate(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello World" {
		t.Errorf("expected 'Hello World', got '%s'", out)
	}
}

func TestGenerate_ServiceError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("service failure")}, tierModels: defaultTierModels}
	_, err := client.Generate(context.Background(), "sys", "usr")
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestGenerate_NoChoices(t *testing.T) {
	// Empty choices slice
	mockResp := openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{}}
	client := &Client{chat: &mockChatService{resp: mockResp}, tierModels: defaultTierModels}
	_, err := client.Generate(context.Background(), "sys", "usr")
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected no choices returned error, got %v", err)
	}
}

func TestGenerateWithModel_UsesRequestedModel(t *testing.T) {
	mock := &mockChatService{resp: openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "ok"}}},
	}}
	client := &Client{chat: mock, tierModels: defaultTierModels}
	if _, err := client.GenerateWithModel(context.Background(), "gpt-4o", "sys", "usr"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mock.lastModel != "gpt-4o" {
		t.Errorf("expected model 'gpt-4o', got %q", mock.lastModel)
	}
}

func TestModelForTier(t *testing.T) {
	client := &Client{tierModels: map[models.Tier]string{models.TierPowerful: "custom-model"}}
	if got := client.ModelForTier(models.TierPowerful); got != "custom-model" {
		t.Errorf("expected 'custom-model', got %q", got)
	}
	if got := client.ModelForTier(models.TierFast); got != defaultTierModels[models.TierFast] {
		t.Errorf("expected fast default fallback, got %q", got)
	}
}

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient()
	if err == nil {
		t.Error("expected error when API key not provided, got nil")
	}
}

func TestNewClient_WithKey(t *testing.T) {
	cli, err := NewClient(WithAPIKey("test-key"), WithTierModel(models.TierFast, "gpt-4o-mini"))
	if err != nil {
		t.Fatalf("expected no error with API key, got %v", err)
	}
	if cli == nil {
		t.Error("expected client instance, got nil")
	}
}
