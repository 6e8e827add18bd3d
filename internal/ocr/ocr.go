package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/preprocess"
)

const defaultMinTextChars = 100

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir string

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	// MinTextChars is the embedded-text length below which a PDF is treated as scanned.
	MinTextChars int
}

// Token is one OCR word with its bounding box and 0..1 confidence.
type Token struct {
	Text       string  `json:"text"`
	Page       int     `json:"page"`
	Left       int     `json:"left"`
	Top        int     `json:"top"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float32 `json:"confidence"`
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
	Tokens     []Token
	Preprocess []preprocess.Report
}

const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
)

type Extractor struct {
	cfg       Config
	runner    Runner
	prep      *preprocess.Preprocessor
	textLayer func(data []byte) ([]string, error)
	logger    *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the exec runner, mainly for tests.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithPreprocessor replaces the default image preprocessor.
func WithPreprocessor(p *preprocess.Preprocessor) Option {
	return func(e *Extractor) {
		if p != nil {
			e.prep = p
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = defaultMinTextChars
	}
	e := &Extractor{
		cfg:       cfg,
		runner:    execRunner{logger: logger},
		prep:      preprocess.New(),
		textLayer: readPDFTextLayer,
		logger:    logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract picks a strategy based on the declared MIME type.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (ExtractionResult, error) {
	start := time.Now()
	format := constants.MapMIMEToFormat(mimeType)
	e.logger.Debug("ocr.extract.start", "mime", mimeType, "format", format, "bytes", len(data))
	if len(data) == 0 {
		return ExtractionResult{SourceType: format}, fmt.Errorf("empty document")
	}

	switch format {
	case constants.PDF:
		res, err := e.extractPDF(ctx, data)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, data, mimeType)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("unsupported ocr mime type", "mime", mimeType)
		return ExtractionResult{}, fmt.Errorf("unsupported mime type: %q", mimeType)
	}
}
