package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/immigration-docs/internal/ocr"
)

// OCRAdapter exposes an ocr.Extractor as a TextExtractor and as the PDF
// rasterizer used by the vision pass.
type OCRAdapter struct {
	e *ocr.Extractor
}

func NewOCRAdapter(e *ocr.Extractor, _ *slog.Logger) *OCRAdapter {
	return &OCRAdapter{e: e}
}

func (a *OCRAdapter) Extract(ctx context.Context, data []byte, mimeType string) (TextExtractionResult, error) {
	r, err := a.e.Extract(ctx, data, mimeType)
	return TextExtractionResult{
		Text:       r.Text,
		Pages:      r.Pages,
		SourceType: r.SourceType,
		Method:     r.Method,
		Language:   r.Language,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
		Confidence: r.Confidence,
		Words:      len(r.Tokens),
	}, err
}

func (a *OCRAdapter) RasterizeFirstPage(ctx context.Context, pdf []byte) ([]byte, error) {
	return a.e.RasterizeFirstPage(ctx, pdf)
}
