package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/cache"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

const defaultVisionTimeout = 30 * time.Second

// VisionExtractor asks a multimodal model to read a document image and maps
// the answer onto ExtractedData. It never fails the caller: every problem is
// reported as a warning on an otherwise empty record.
type VisionExtractor struct {
	client   VisionClient
	logger   *slog.Logger
	timeout  time.Duration
	cache    cache.Cache
	cacheTTL time.Duration
	provider string
	model    string
}

type Option func(*VisionExtractor)

// WithTimeout bounds a single model call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(v *VisionExtractor) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithCache stores raw answers keyed by image content and prompt.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(v *VisionExtractor) {
		v.cache = c
		v.cacheTTL = ttl
	}
}

// WithProvider labels logs and metrics with the provider and model in use.
func WithProvider(name, model string) Option {
	return func(v *VisionExtractor) {
		v.provider = name
		v.model = model
	}
}

func NewVisionExtractor(client VisionClient, logger *slog.Logger, opts ...Option) *VisionExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	v := &VisionExtractor{
		client:   client,
		logger:   logger,
		timeout:  defaultVisionTimeout,
		provider: "unknown",
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Enabled reports whether a model client is configured.
func (v *VisionExtractor) Enabled() bool {
	return v != nil && v.client != nil
}

// Extract runs one vision pass over image. A disabled extractor returns an
// empty record without warnings.
func (v *VisionExtractor) Extract(ctx context.Context, image []byte, mimeType string, docType constants.DocumentType) entity.ExtractedData {
	if !v.Enabled() {
		return entity.ExtractedData{}
	}
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.NewString()
	}
	start := time.Now()

	img, mt, err := PrepareImage(image, mimeType)
	if err != nil {
		v.logger.Warn("vision.extract.prepare_failed", "req_id", rid, "mime", mimeType, "error", err)
		return failed(err)
	}

	prompt := BuildVisionPrompt(docType)
	key := cache.Key(img, string(docType), prompt, v.provider, v.model)

	if answer, ok := v.cached(ctx, key); ok {
		if data, perr := parseVisionResponse(answer, docType, v.logger); perr == nil {
			recordCacheHit(ctx, v.provider)
			v.logger.Info("vision.extract.cache_hit", "req_id", rid, "doc_type", docType)
			return data
		}
	}

	v.logger.Info("vision.extract.start",
		"req_id", rid,
		"provider", v.provider,
		"model", v.model,
		"doc_type", docType,
		"mime", mt,
		"bytes", len(img),
	)

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	answer, err := v.call(callCtx, img, mt, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timeout after %s", v.timeout)
		}
		recordRequest(ctx, v.provider, v.model, string(docType), time.Since(start), err)
		var se *StatusError
		v.logger.Error("vision.extract.call_failed",
			"req_id", rid, "error", err,
			"retryable", errors.As(err, &se) && se.Retryable(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return failed(err)
	}

	data, err := parseVisionResponse(answer, docType, v.logger)
	recordRequest(ctx, v.provider, v.model, string(docType), time.Since(start), err)
	if err != nil {
		v.logger.Error("vision.extract.parse_failed",
			"req_id", rid, "error", err, "answer_bytes", len(answer),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return failed(fmt.Errorf("invalid response: %w", err))
	}

	v.store(ctx, key, answer)
	v.logger.Info("vision.extract.ok",
		"req_id", rid,
		"doc_type", data.DocumentType,
		"fields", len(data.PopulatedFields()),
		"warnings", len(data.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return data
}

type callResult struct {
	answer string
	err    error
}

// call returns when the client answers or ctx is done, whichever is first.
// A client that ignores ctx is left to finish in the background.
func (v *VisionExtractor) call(ctx context.Context, img []byte, mimeType, prompt string) (string, error) {
	done := make(chan callResult, 1)
	go func() {
		answer, err := v.client.Extract(ctx, img, mimeType, prompt)
		done <- callResult{answer: answer, err: err}
	}()
	select {
	case r := <-done:
		return r.answer, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (v *VisionExtractor) cached(ctx context.Context, key string) (string, bool) {
	if v.cache == nil {
		return "", false
	}
	b, err := v.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			v.logger.Warn("vision.cache.get_failed", "error", err)
		}
		return "", false
	}
	return string(b), true
}

func (v *VisionExtractor) store(ctx context.Context, key, answer string) {
	if v.cache == nil {
		return
	}
	if err := v.cache.Set(ctx, key, []byte(answer), v.cacheTTL); err != nil {
		v.logger.Warn("vision.cache.set_failed", "error", err)
	}
}

func failed(err error) entity.ExtractedData {
	var d entity.ExtractedData
	d.AddWarning("AI extraction failed: " + err.Error())
	return d
}
