// Package pipeline runs one document through acquisition, classification,
// regex and vision extraction, merging and mapping.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/classify"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
	"github.com/joseph-ayodele/immigration-docs/internal/extract"
	"github.com/joseph-ayodele/immigration-docs/internal/llm"
	"github.com/joseph-ayodele/immigration-docs/internal/mapping"
	"github.com/joseph-ayodele/immigration-docs/internal/merge"
)

const tracerName = "github.com/joseph-ayodele/immigration-docs/pipeline"

// Rasterizer renders the first PDF page as PNG for the vision pass.
type Rasterizer interface {
	RasterizeFirstPage(ctx context.Context, pdf []byte) ([]byte, error)
}

// Input is one uploaded document.
type Input struct {
	Data     []byte
	MIMEType string
	Filename string
	Hint     constants.DocumentType
}

// Output is everything the pipeline learned about a document.
type Output struct {
	Extracted  entity.ExtractedData         `json:"extracted"`
	Mapping    entity.MappingResult         `json:"mapping"`
	Detection  classify.Detection           `json:"detection"`
	OCR        extract.TextExtractionResult `json:"-"`
	VisionUsed bool                         `json:"vision_used"`
	Duration   time.Duration                `json:"duration"`
}

// Processor coordinates the stages. Every stage degrades instead of failing;
// only an unsupported MIME type is returned as an error.
type Processor struct {
	logger     *slog.Logger
	text       extract.TextExtractor
	fields     *extract.FieldExtractor
	vision     *llm.VisionExtractor
	rasterizer Rasterizer
	mapper     *mapping.Mapper
	tracer     trace.Tracer
}

func NewProcessor(
	logger *slog.Logger,
	text extract.TextExtractor,
	fields *extract.FieldExtractor,
	vision *llm.VisionExtractor,
	rasterizer Rasterizer,
	mapper *mapping.Mapper,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if fields == nil {
		fields = extract.New(logger)
	}
	if mapper == nil {
		mapper = mapping.NewMapper(logger)
	}
	return &Processor{
		logger:     logger,
		text:       text,
		fields:     fields,
		vision:     vision,
		rasterizer: rasterizer,
		mapper:     mapper,
		tracer:     otel.Tracer(tracerName),
	}
}

func (p *Processor) Process(ctx context.Context, in Input) (Output, error) {
	start := time.Now()
	mimeType := constants.NormalizeMIME(in.MIMEType)
	if !constants.IsSupportedMIME(mimeType) {
		return Output{}, common.NewAppError("UNSUPPORTED_MEDIA", fmt.Sprintf("unsupported mime type %q", in.MIMEType), common.ErrUnsupportedMedia)
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.process", trace.WithAttributes(
		attribute.String("document.filename", in.Filename),
		attribute.String("document.mime", mimeType),
		attribute.String("document.hint", string(in.Hint)),
	))
	defer span.End()

	var out Output

	// 1) acquire text
	ocrRes, ocrErr := p.acquire(ctx, in.Data, mimeType)
	out.OCR = ocrRes

	// 2) classify
	if ocrErr != nil {
		out.Detection = classify.DetectOnError(in.Hint)
	} else {
		out.Detection = classify.Detect(ocrRes.Text, in.Hint)
	}
	docType := out.Detection.DocumentType
	span.SetAttributes(
		attribute.String("document.type", string(docType)),
		attribute.String("document.detection_method", string(out.Detection.Method)),
	)

	// 3) regex and vision extraction
	var base, vision entity.ExtractedData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, s := p.tracer.Start(gctx, "pipeline.extract.regex")
		defer s.End()
		base = p.fields.Extract(ocrRes.Text, docType)
		return nil
	})
	if p.vision.Enabled() {
		out.VisionUsed = true
		g.Go(func() error {
			vctx, s := p.tracer.Start(gctx, "pipeline.extract.vision")
			defer s.End()
			vision = p.runVision(vctx, in.Data, mimeType, docType)
			if len(vision.Warnings) > 0 {
				s.SetStatus(codes.Error, vision.Warnings[0])
			}
			return nil
		})
	}
	_ = g.Wait()

	base.SetConfidence(entity.ConfidenceDocumentType, out.Detection.Confidence)
	if ocrErr != nil {
		base.AddWarning("Text extraction failed: " + ocrErr.Error())
	}
	for _, w := range ocrRes.Warnings {
		base.AddWarning(w)
	}

	// 4) merge and map
	out.Extracted = merge.Merge(base, vision)
	mapType := out.Extracted.DocumentType
	if !mapType.IsSet() {
		mapType = docType
	}
	_, ms := p.tracer.Start(ctx, "pipeline.map")
	out.Mapping = mapping.Validate(p.mapper.Map(out.Extracted, mapType))
	ms.End()

	out.Duration = time.Since(start)
	p.logger.With(common.LogAttrs(ctx)...).Info("pipeline.process.ok",
		"filename", in.Filename,
		"mime", mimeType,
		"document_type", mapType,
		"detection_method", out.Detection.Method,
		"ocr_method", ocrRes.Method,
		"vision", out.VisionUsed,
		"fields", len(out.Extracted.PopulatedFields()),
		"warnings", len(out.Extracted.Warnings),
		"elapsed_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

func (p *Processor) acquire(ctx context.Context, data []byte, mimeType string) (extract.TextExtractionResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.acquire")
	defer span.End()

	if p.text == nil {
		return extract.TextExtractionResult{}, fmt.Errorf("no text extractor configured")
	}
	res, err := p.text.Extract(ctx, data, mimeType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "text extraction failed")
		p.logger.Warn("pipeline.ocr.failed", "mime", mimeType, "error", err)
		return res, err
	}
	span.SetAttributes(
		attribute.String("ocr.method", res.Method),
		attribute.Int("ocr.pages", res.Pages),
		attribute.Float64("ocr.confidence", float64(res.Confidence)),
	)
	p.logger.Info("pipeline.ocr.ok",
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
	)
	return res, nil
}

// runVision feeds the image to the vision extractor; PDFs go through their
// first rasterized page.
func (p *Processor) runVision(ctx context.Context, data []byte, mimeType string, docType constants.DocumentType) entity.ExtractedData {
	if constants.MapMIMEToFormat(mimeType) == constants.PDF {
		if p.rasterizer == nil {
			return entity.ExtractedData{}
		}
		png, err := p.rasterizer.RasterizeFirstPage(ctx, data)
		if err != nil {
			p.logger.Warn("pipeline.vision.rasterize_failed", "error", err)
			var d entity.ExtractedData
			d.AddWarning("AI extraction failed: could not rasterize PDF: " + err.Error())
			return d
		}
		data, mimeType = png, constants.MIMEPNG
	}
	return p.vision.Extract(ctx, data, mimeType, docType)
}
