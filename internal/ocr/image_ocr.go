package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/preprocess"
)

func (e *Extractor) extractImage(ctx context.Context, data []byte, mimeType string) (ExtractionResult, error) {
	res := ExtractionResult{
		SourceType: constants.IMAGE,
		Method:     MethodImageOCR,
		Language:   e.cfg.TesseractLang,
		Pages:      1,
	}

	pngBytes, rep, err := e.preparePage(data)
	preprocessed := err == nil
	if !preprocessed {
		// tesseract reads most raster formats itself; OCR the original bytes.
		e.logger.Warn("ocr.image.preprocess_failed", "mime", mimeType, "error", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("preprocessing skipped: %v", err))
		pngBytes = data
	} else {
		res.Preprocess = append(res.Preprocess, rep)
	}

	page, warn, err := e.ocrBytes(ctx, pngBytes, extForMIME(mimeType, preprocessed), 1)
	res.Warnings = append(res.Warnings, warn...)
	if err != nil {
		return res, err
	}
	res.Text = Normalize(page.text)
	res.Tokens = page.tokens
	res.Confidence = blendConfidence(page.conf, heuristicConfidence(res.Text))
	return res, nil
}

// preparePage decodes a raster page, runs the preprocessor and re-encodes PNG.
func (e *Extractor) preparePage(data []byte) ([]byte, preprocess.Report, error) {
	img, err := preprocess.DecodeImage(data)
	if err != nil {
		return nil, preprocess.Report{}, err
	}
	processed, rep := e.prep.Process(img)
	out, err := preprocess.EncodePNG(processed)
	if err != nil {
		return nil, rep, err
	}
	e.logger.Debug("ocr.preprocess.ok",
		"threshold", rep.Threshold,
		"skew_angle", rep.SkewAngle,
		"rotated", rep.Rotated,
	)
	return out, rep, nil
}

type pageText struct {
	text   string
	tokens []Token
	conf   float32
}

// ocrBytes writes one page image to a temp file and runs tesseract in TSV mode.
func (e *Extractor) ocrBytes(ctx context.Context, img []byte, ext string, page int) (pageText, []string, error) {
	tmpDir, err := os.MkdirTemp("", "immidocs-ocr-*")
	if err != nil {
		return pageText{}, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	path := filepath.Join(tmpDir, "page"+ext)
	if err := os.WriteFile(path, img, 0o600); err != nil {
		return pageText{}, nil, fmt.Errorf("write page image: %w", err)
	}
	return e.tesseractTSV(ctx, path, page)
}

// tesseractTSV runs `tesseract <file> stdout -l <lang> ... tsv`.
func (e *Extractor) tesseractTSV(ctx context.Context, path string, page int) (pageText, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return pageText{}, nonEmpty(string(errb)), fmt.Errorf("tesseract: %w", err)
	}
	tokens, text, conf := parseTSV(string(out), page)
	return pageText{text: text, tokens: tokens, conf: conf}, nil, nil
}

func extForMIME(mimeType string, preprocessed bool) string {
	if preprocessed {
		return ".png"
	}
	switch constants.NormalizeMIME(mimeType) {
	case constants.MIMEJPEG:
		return ".jpg"
	case constants.MIMETIFF:
		return ".tif"
	case constants.MIMEWebP:
		return ".webp"
	default:
		return ".png"
	}
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
