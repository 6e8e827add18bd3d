package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/immigration-docs/constants"
)

const pageBreak = "\n\f\n"

// extractPDF reads the embedded text layer and falls back to rasterize+OCR when
// the layer is missing, unreadable or shorter than MinTextChars.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (ExtractionResult, error) {
	res := ExtractionResult{
		SourceType: constants.PDF,
		Method:     MethodPDFText,
		Language:   e.cfg.TesseractLang,
	}

	pages, err := e.textLayer(data)
	if err != nil {
		e.logger.Warn("ocr.pdf.text_layer_failed", "error", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("pdf text layer unavailable: %v", err))
	}
	text := Normalize(strings.Join(pages, pageBreak))
	if utf8.RuneCountInString(strings.TrimSpace(text)) >= e.cfg.MinTextChars {
		res.Text = text
		res.Pages = len(pages)
		res.Confidence = blendConfidence(0, heuristicConfidence(text)) + 0.1
		if res.Confidence > 1 {
			res.Confidence = 1
		}
		return res, nil
	}

	e.logger.Info("ocr.pdf.insufficient_text", "chars", utf8.RuneCountInString(text), "min", e.cfg.MinTextChars)
	ocrRes, err := e.pdfToOCR(ctx, data)
	res.Warnings = append(res.Warnings, ocrRes.Warnings...)
	if err != nil {
		if text != "" {
			// keep whatever the text layer produced
			res.Text = text
			res.Pages = len(pages)
			res.Confidence = heuristicConfidence(text)
			res.Warnings = append(res.Warnings, fmt.Sprintf("pdf ocr fallback failed: %v", err))
			return res, nil
		}
		return res, err
	}
	ocrRes.Warnings = res.Warnings
	return ocrRes, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, data []byte) (ExtractionResult, error) {
	res := ExtractionResult{
		SourceType: constants.PDF,
		Method:     MethodPDFOCR,
		Language:   e.cfg.TesseractLang,
	}
	tmpDir, matches, warn, err := e.rasterize(ctx, data, false)
	if tmpDir != "" {
		defer func() {
			if err := os.RemoveAll(tmpDir); err != nil {
				e.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
			}
		}()
	}
	res.Warnings = append(res.Warnings, warn...)
	if err != nil {
		return res, err
	}

	var (
		texts   []string
		confSum float32
		ok      int
	)
	for i, img := range matches {
		raw, err := os.ReadFile(img)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			continue
		}
		pngBytes, rep, err := e.preparePage(raw)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d preprocessing skipped: %v", i+1, err))
			pngBytes = raw
		} else {
			res.Preprocess = append(res.Preprocess, rep)
		}
		page, w, err := e.ocrBytes(ctx, pngBytes, ".png", i+1)
		res.Warnings = append(res.Warnings, w...)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i+1, err))
			continue
		}
		texts = append(texts, page.text)
		res.Tokens = append(res.Tokens, page.tokens...)
		confSum += page.conf
		ok++
	}
	res.Pages = len(matches)
	if ok == 0 {
		return res, errors.New("ocr failed on every rendered page")
	}
	res.Text = Normalize(strings.Join(texts, pageBreak))
	res.Confidence = blendConfidence(confSum/float32(ok), heuristicConfidence(res.Text))
	return res, nil
}

// RasterizeFirstPage renders page one of a PDF as PNG bytes, for the vision pass.
func (e *Extractor) RasterizeFirstPage(ctx context.Context, data []byte) ([]byte, error) {
	tmpDir, matches, _, err := e.rasterize(ctx, data, true)
	if tmpDir != "" {
		defer func() { _ = os.RemoveAll(tmpDir) }()
	}
	if err != nil {
		return nil, err
	}
	return os.ReadFile(matches[0])
}

// rasterize runs `pdftoppm -r DPI -png [-f 1 -l N] in.pdf <tmp>/page`. The
// caller removes the returned directory.
func (e *Extractor) rasterize(ctx context.Context, data []byte, firstOnly bool) (string, []string, []string, error) {
	tmpDir, err := os.MkdirTemp("", "immidocs-pp-*")
	if err != nil {
		return "", nil, nil, err
	}
	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return tmpDir, nil, nil, fmt.Errorf("write pdf: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	switch {
	case firstOnly:
		args = append(args, "-f", "1", "-l", "1")
	case e.cfg.MaxPages > 0:
		args = append(args, "-f", "1", "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, in, prefix)

	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...)
	if err != nil {
		return tmpDir, nil, nonEmpty(string(errb)), fmt.Errorf("pdftoppm: %w", err)
	}

	// collect generated pngs (page-1.png, page-2.png, ...); pdftoppm zero-pads
	// the page number so lexical order is page order.
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return tmpDir, nil, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}
	return tmpDir, matches, nil, nil
}
