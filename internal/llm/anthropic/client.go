// Package anthropic serves llm.VisionClient with Claude models.
package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joseph-ayodele/immigration-docs/internal/llm"
)

const defaultModel = "claude-sonnet-4-5"

// Config for the Anthropic client.
type Config struct {
	APIKey      string
	BaseURL     string // optional, mainly for tests
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

type Client struct {
	client anthropic.Client
	cfg    Config
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{client: anthropic.NewClient(opts...), cfg: cfg, logger: logger}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Extract implements llm.VisionClient with a single user turn holding the
// image block followed by the instruction text.
func (c *Client) Extract(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: llm.SystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mimeType, base64.StdEncoding.EncodeToString(image)),
				anthropic.NewTextBlock(prompt),
			),
		},
	}
	if c.cfg.Temperature != 0 {
		params.Temperature = anthropic.Float(float64(c.cfg.Temperature))
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	c.logger.Debug("vision.anthropic.response",
		"model", c.cfg.Model,
		"stop_reason", msg.StopReason,
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("empty anthropic answer")
	}
	return out, nil
}
