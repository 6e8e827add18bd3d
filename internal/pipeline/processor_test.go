package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
	"github.com/joseph-ayodele/immigration-docs/internal/extract"
	"github.com/joseph-ayodele/immigration-docs/internal/llm"
	"github.com/joseph-ayodele/immigration-docs/internal/mapping"
)

const i797Text = `U.S. Department of Homeland Security
I-797 Notice of Action
Receipt Number: WAC1234567890
Notice of Approval
Valid from: 03/01/2024
Valid to: 02/28/2027`

type fakeText struct {
	res extract.TextExtractionResult
	err error
}

func (f fakeText) Extract(context.Context, []byte, string) (extract.TextExtractionResult, error) {
	return f.res, f.err
}

type fakeRasterizer struct {
	calls int
	err   error
}

func (f *fakeRasterizer) RasterizeFirstPage(context.Context, []byte) ([]byte, error) {
	f.calls++
	return []byte("png page"), f.err
}

type recordingVision struct {
	mu     sync.Mutex
	mimes  []string
	answer string
}

func (r *recordingVision) Extract(_ context.Context, _ []byte, mimeType, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mimes = append(r.mimes, mimeType)
	return r.answer, nil
}

func newProcessor(text extract.TextExtractor, vision llm.VisionClient, r Rasterizer) *Processor {
	return NewProcessor(nil, text, extract.New(nil), llm.NewVisionExtractor(vision, nil), r, mapping.NewMapper(nil))
}

func TestProcess_I797RegexOnly(t *testing.T) {
	p := newProcessor(fakeText{res: extract.TextExtractionResult{Text: i797Text, Method: "pdf-text", Pages: 1}}, nil, nil)

	out, err := p.Process(context.Background(), Input{Data: []byte("%PDF"), MIMEType: constants.MIMEPDF, Filename: "i797.pdf"})
	require.NoError(t, err)

	assert.Equal(t, constants.DocumentTypeI797, out.Detection.DocumentType)
	assert.Equal(t, constants.DetectionOCR, out.Detection.Method)
	assert.False(t, out.VisionUsed)

	d := out.Extracted
	assert.Equal(t, constants.DocumentTypeI797, d.DocumentType)
	assert.Equal(t, "WAC1234567890", entity.Deref(d.ReceiptNumber))
	assert.Equal(t, "APPROVAL", entity.Deref(d.NoticeType))
	require.NotNil(t, d.ValidityFrom)
	require.NotNil(t, d.ValidityTo)
	assert.Equal(t, "2024-03-01", d.ValidityFrom.String())
	assert.Equal(t, "2027-02-28", d.ValidityTo.String())
	assert.Empty(t, d.Warnings)
	assert.Equal(t, i797Text, d.ExtractedText)

	assert.Equal(t, "WAC1234567890", out.Mapping.DocumentMetadata[mapping.MetaDocumentNumber])
	assert.Equal(t, "2027-02-28", out.Mapping.DocumentMetadata[mapping.MetaExpiryDate])
	assert.Empty(t, out.Mapping.Warnings)
}

func TestProcess_UnsupportedMIME(t *testing.T) {
	p := newProcessor(fakeText{}, nil, nil)
	_, err := p.Process(context.Background(), Input{Data: []byte("x"), MIMEType: "text/plain"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedMedia)
}

func TestProcess_OCRFailureFallsBackToHintAndVision(t *testing.T) {
	vision := &recordingVision{answer: `{"passport_number":"X1234567","expiry_date":"2031-05-05","confidence_scores":{"overall":0.92}}`}
	p := newProcessor(fakeText{err: errors.New("tesseract not found")}, vision, nil)

	out, err := p.Process(context.Background(), Input{
		Data:     []byte("jpeg bytes"),
		MIMEType: "image/jpg",
		Hint:     constants.DocumentTypePassport,
	})
	require.NoError(t, err)

	assert.Equal(t, constants.DetectionHintOnError, out.Detection.Method)
	assert.Equal(t, constants.DocumentTypePassport, out.Extracted.DocumentType)
	assert.True(t, out.VisionUsed)
	assert.Equal(t, []string{constants.MIMEJPEG}, vision.mimes)

	assert.Equal(t, "X1234567", entity.Deref(out.Extracted.PassportNumber))
	assert.Contains(t, out.Extracted.Warnings, "Text extraction failed: tesseract not found")
	assert.Equal(t, "X1234567", out.Mapping.ProfileUpdates[entity.ProfilePassportNumber])
	assert.Equal(t, "2031-05-05", out.Mapping.ProfileUpdates[entity.ProfilePassportExpiryDate])
}

func TestProcess_NothingReadableStillReturnsResult(t *testing.T) {
	p := newProcessor(fakeText{err: errors.New("no text")}, nil, nil)
	out, err := p.Process(context.Background(), Input{Data: []byte("x"), MIMEType: constants.MIMEPNG})
	require.NoError(t, err)

	assert.Equal(t, constants.DocumentTypeOther, out.Detection.DocumentType)
	assert.Equal(t, constants.DetectionErrorDefault, out.Detection.Method)
	assert.Contains(t, out.Extracted.Warnings, "Text extraction failed: no text")
	assert.Contains(t, out.Mapping.Warnings, "Unknown document type - using generic mapping")
}

func TestProcess_VisionOverridesRegexAndRasterizesPDF(t *testing.T) {
	vision := &recordingVision{answer: `{"document_type":"i797","receipt_number":"EAC9999999999","notice_type":"approval","priority_date":"2019-05-20"}`}
	raster := &fakeRasterizer{}
	p := newProcessor(fakeText{res: extract.TextExtractionResult{Text: i797Text}}, vision, raster)

	out, err := p.Process(context.Background(), Input{Data: []byte("%PDF"), MIMEType: constants.MIMEPDF})
	require.NoError(t, err)

	assert.Equal(t, 1, raster.calls)
	assert.Equal(t, []string{constants.MIMEPNG}, vision.mimes)
	assert.Equal(t, "EAC9999999999", entity.Deref(out.Extracted.ReceiptNumber), "vision wins")
	require.NotNil(t, out.Extracted.ValidityTo, "regex fills the gaps")
	assert.Equal(t, "2027-02-28", out.Extracted.ValidityTo.String())
	require.NotNil(t, out.Mapping.PriorityDateUpdate)
	assert.Equal(t, "2019-05-20", out.Mapping.PriorityDateUpdate.Date)
}

func TestProcess_RasterizeFailureIsAWarning(t *testing.T) {
	vision := &recordingVision{answer: `{}`}
	raster := &fakeRasterizer{err: errors.New("pdftoppm missing")}
	p := newProcessor(fakeText{res: extract.TextExtractionResult{Text: i797Text}}, vision, raster)

	out, err := p.Process(context.Background(), Input{Data: []byte("%PDF"), MIMEType: constants.MIMEPDF})
	require.NoError(t, err)
	assert.Empty(t, vision.mimes)
	assert.Contains(t, out.Extracted.Warnings, "AI extraction failed: could not rasterize PDF: pdftoppm missing")
	assert.Equal(t, "WAC1234567890", entity.Deref(out.Extracted.ReceiptNumber))
}
