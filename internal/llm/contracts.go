package llm

import "context"

// VisionClient sends one image plus an instruction prompt to a multimodal
// model and returns the model's raw text answer.
type VisionClient interface {
	Extract(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

// VisionClientFunc adapts a function to VisionClient.
type VisionClientFunc func(ctx context.Context, image []byte, mimeType, prompt string) (string, error)

func (f VisionClientFunc) Extract(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	return f(ctx, image, mimeType, prompt)
}
