package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/storage"
)

// anthropicConfig is the profile config shape for the Anthropic adapter.
type anthropicConfig struct {
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

// AnthropicAdapter runs text runs through the Anthropic messages API,
// writing the response as a text artifact under the storage root.
type AnthropicAdapter struct {
	fallbackKey string
	storage     *storage.Storage
	logger      *zap.Logger
}

// NewAnthropicAdapter creates an AnthropicAdapter. fallbackKey is used
// when the profile config carries no api_key.
func NewAnthropicAdapter(fallbackKey string, st *storage.Storage, logger *zap.Logger) *AnthropicAdapter {
	return &AnthropicAdapter{fallbackKey: fallbackKey, storage: st, logger: logger.Named("anthropic")}
}

var _ Adapter = (*AnthropicAdapter)(nil)

func (a *AnthropicAdapter) Name() string {
	return models.ProviderTypeAnthropic
}

func (a *AnthropicAdapter) Execute(ctx context.Context, in ExecuteInput) (*Result, error) {
	var cfg anthropicConfig
	if in.ConfigJSON != "" {
		if err := json.Unmarshal([]byte(in.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse provider config: %w", err)
		}
	}
	if cfg.APIKey == "" {
		cfg.APIKey = a.fallbackKey
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key missing from profile config and environment")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5-20250929"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}

	client := anthropic.NewClient(cfg.APIKey)

	a.logger.Debug("text generation request",
		zap.String("run_id", in.RunID),
		zap.String("model", cfg.Model),
		zap.Int("prompt_len", len(in.Prompt)))

	resp, err := client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(cfg.Model),
		MaxTokens: cfg.MaxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(in.Prompt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate text: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			text = *block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("text generation returned no content")
	}

	ref, err := a.storage.WriteArtifact(path.Join("runs", in.RunID, "result.txt"), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to write text artifact: %w", err)
	}
	return &Result{
		ResultRefs: []string{ref},
		Summary:    fmt.Sprintf("generated %d characters with %s", len(text), cfg.Model),
	}, nil
}
