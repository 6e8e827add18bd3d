package extract

import (
	"context"
	"time"
)

// TextExtractor is Stage 1: document bytes -> text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF" | "IMAGE"
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
	Words      int
}
