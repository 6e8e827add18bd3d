package providers

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/immigration-docs/internal/cache"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/llm/anthropic"
	"github.com/joseph-ayodele/immigration-docs/internal/llm/gemini"
	"github.com/joseph-ayodele/immigration-docs/internal/llm/openai"
)

func TestNewVisionClient(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     common.VisionConfig
		wantNil bool
		check   func(t *testing.T, c any)
	}{
		{name: "none", cfg: common.VisionConfig{Provider: "none", OpenAIAPIKey: "k"}, wantNil: true},
		{name: "missing key", cfg: common.VisionConfig{Provider: "openai"}, wantNil: true},
		{name: "openai", cfg: common.VisionConfig{Provider: "openai", OpenAIAPIKey: "k"}, check: func(t *testing.T, c any) {
			assert.IsType(t, &openai.Client{}, c)
		}},
		{name: "anthropic", cfg: common.VisionConfig{Provider: "anthropic", AnthropicAPIKey: "k"}, check: func(t *testing.T, c any) {
			assert.IsType(t, &anthropic.Client{}, c)
		}},
		{name: "gemini", cfg: common.VisionConfig{Provider: "gemini", GeminiAPIKey: "k"}, check: func(t *testing.T, c any) {
			assert.IsType(t, &gemini.Client{}, c)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewVisionClient(ctx, tt.cfg, nil)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, c)
				return
			}
			require.NotNil(t, c)
			tt.check(t, c)
		})
	}
}

func TestNewVisionExtractor(t *testing.T) {
	ctx := context.Background()

	v, err := NewVisionExtractor(ctx, common.VisionConfig{Provider: "openai"}, cache.NewMemory(), time.Hour, nil)
	require.NoError(t, err)
	assert.False(t, v.Enabled())

	v, err = NewVisionExtractor(ctx, common.VisionConfig{Provider: "anthropic", AnthropicAPIKey: "k", Timeout: time.Second}, nil, 0, nil)
	require.NoError(t, err)
	assert.True(t, v.Enabled())
}

func TestNewVisionClient_UnknownProvider(t *testing.T) {
	_, err := NewVisionClient(context.Background(), common.VisionConfig{Provider: "bogus"}, nil)
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestNewVisionClient_GeminiInitFailureDisablesVision(t *testing.T) {
	orig := newGeminiClient
	t.Cleanup(func() { newGeminiClient = orig })
	newGeminiClient = func(context.Context, gemini.Config, *slog.Logger) (*gemini.Client, error) {
		return nil, errors.New("no credentials")
	}

	cfg := common.VisionConfig{Provider: "gemini", GeminiAPIKey: "k"}
	c, err := NewVisionClient(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	v, err := NewVisionExtractor(context.Background(), cfg, nil, 0, nil)
	require.NoError(t, err)
	assert.False(t, v.Enabled())
}
