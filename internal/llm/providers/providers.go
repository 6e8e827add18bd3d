// Package providers builds the configured llm.VisionClient.
package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/immigration-docs/internal/cache"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/llm"
	"github.com/joseph-ayodele/immigration-docs/internal/llm/anthropic"
	"github.com/joseph-ayodele/immigration-docs/internal/llm/gemini"
	"github.com/joseph-ayodele/immigration-docs/internal/llm/openai"
)

type modeled interface {
	Model() string
}

var newGeminiClient = gemini.NewClient

// NewVisionClient picks a provider by cfg.Provider. A missing API key, the
// "none" provider or a provider client that cannot be built yields a nil
// client, which disables vision extraction.
func NewVisionClient(ctx context.Context, cfg common.VisionConfig, logger *slog.Logger) (llm.VisionClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Provider {
	case "openai", "anthropic", "gemini", "none", "":
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown vision provider %q", cfg.Provider), common.ErrInvalidInput)
	}
	key := cfg.VisionAPIKey()
	if cfg.Provider == "none" || key == "" {
		logger.Info("vision.disabled", "provider", cfg.Provider, "has_key", key != "")
		return nil, nil
	}

	switch cfg.Provider {
	case "openai", "":
		return openai.NewClient(openai.Config{
			APIKey:      key,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:      key,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case "gemini":
		c, err := newGeminiClient(ctx, gemini.Config{
			APIKey:      key,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, logger)
		if err != nil {
			logger.Warn("vision.disabled", "provider", cfg.Provider, "error", err)
			return nil, nil
		}
		return c, nil
	}
	return nil, nil
}

// NewVisionExtractor wires the configured client, cache and timeout into an
// llm.VisionExtractor. The extractor is disabled when no client is available.
func NewVisionExtractor(ctx context.Context, cfg common.VisionConfig, store cache.Cache, ttl time.Duration, logger *slog.Logger) (*llm.VisionExtractor, error) {
	client, err := NewVisionClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	model := cfg.Model
	if m, ok := client.(modeled); ok {
		model = m.Model()
	}
	opts := []llm.Option{llm.WithTimeout(cfg.Timeout), llm.WithProvider(provider, model)}
	if store != nil {
		opts = append(opts, llm.WithCache(store, ttl))
	}
	return llm.NewVisionExtractor(client, logger, opts...), nil
}
