package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/ocr"
)

// runocr prints what text acquisition alone produces for a file.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <path>")
		os.Exit(2)
	}
	path := os.Args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig().OCR
	ocrx := ocr.NewExtractor(ocr.Config{
		Pdftoppm:      cfg.Pdftoppm,
		Tesseract:     cfg.Tesseract,
		TesseractLang: cfg.TesseractLang,
		TessdataDir:   cfg.TessdataDir,
		DPI:           cfg.DPI,
		MaxPages:      cfg.MaxPages,
		MinTextChars:  cfg.MinTextChars,
		PSM:           cfg.PSM,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	res, err := ocrx.Extract(ctx, data, constants.MIMEFromExt(filepath.Ext(path)))
	dur := time.Since(start)
	if err != nil {
		logger.Error("text extraction failed", "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"confidence", res.Confidence,
		"warnings", res.Warnings,
		"duration_ms", dur.Milliseconds(),
	)
	os.Stdout.WriteString(res.Text + "\n")
}
