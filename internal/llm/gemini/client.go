// Package gemini serves llm.VisionClient with Google Gemini models.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/immigration-docs/internal/llm"
)

const defaultModel = "gemini-2.5-flash"

// Config for the Gemini client.
type Config struct {
	APIKey      string
	BaseURL     string // optional, mainly for tests
	Model       string
	Temperature float32
	MaxTokens   int
}

type Client struct {
	client *genai.Client
	cfg    Config
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1beta", BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, cfg: cfg, logger: logger}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Extract implements llm.VisionClient with the prompt and an inline image blob.
func (c *Client) Extract(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			},
		},
	}
	temp := c.cfg.Temperature
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: llm.SystemPrompt}}},
		Temperature:       &temp,
		MaxOutputTokens:   int32(c.cfg.MaxTokens),
		ResponseMIMEType:  "application/json",
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	out := strings.TrimSpace(resp.Text())
	c.logger.Debug("vision.gemini.response",
		"model", c.cfg.Model,
		"bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if out == "" {
		return "", fmt.Errorf("empty gemini answer")
	}
	return out, nil
}
