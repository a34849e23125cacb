package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/models"
)

// openaiConfig is the profile config shape for the OpenAI adapter.
type openaiConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	Size    string `json:"size"`
}

// OpenAIAdapter generates images through the OpenAI Images API.
type OpenAIAdapter struct {
	fallbackKey string
	logger      *zap.Logger
}

// NewOpenAIAdapter creates an OpenAIAdapter. fallbackKey is used when
// the profile config carries no api_key.
func NewOpenAIAdapter(fallbackKey string, logger *zap.Logger) *OpenAIAdapter {
	return &OpenAIAdapter{fallbackKey: fallbackKey, logger: logger.Named("openai")}
}

var _ Adapter = (*OpenAIAdapter)(nil)

func (a *OpenAIAdapter) Name() string {
	return models.ProviderTypeOpenAI
}

func (a *OpenAIAdapter) Execute(ctx context.Context, in ExecuteInput) (*Result, error) {
	var cfg openaiConfig
	if in.ConfigJSON != "" {
		if err := json.Unmarshal([]byte(in.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse provider config: %w", err)
		}
	}
	if cfg.APIKey == "" {
		cfg.APIKey = a.fallbackKey
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key missing from profile config and environment")
	}
	if cfg.Model == "" {
		cfg.Model = openai.CreateImageModelDallE3
	}
	if cfg.Size == "" {
		cfg.Size = openai.CreateImageSize1024x1024
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	client := openai.NewClientWithConfig(clientConfig)

	a.logger.Debug("image generation request",
		zap.String("run_id", in.RunID),
		zap.String("model", cfg.Model),
		zap.Int("prompt_len", len(in.Prompt)))

	resp, err := client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         in.Prompt,
		Model:          cfg.Model,
		Size:           cfg.Size,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	refs := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.URL != "" {
			refs = append(refs, d.URL)
		}
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("image generation returned no results")
	}
	return &Result{
		ResultRefs: refs,
		Summary:    fmt.Sprintf("generated %d image(s) with %s", len(refs), cfg.Model),
	}, nil
}
