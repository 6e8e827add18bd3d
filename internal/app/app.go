// Package app wires configuration into the pipeline, store and services
// shared by the commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/immigration-docs/internal/cache"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/documents"
	"github.com/joseph-ayodele/immigration-docs/internal/export"
	"github.com/joseph-ayodele/immigration-docs/internal/extract"
	"github.com/joseph-ayodele/immigration-docs/internal/llm/providers"
	"github.com/joseph-ayodele/immigration-docs/internal/mapping"
	"github.com/joseph-ayodele/immigration-docs/internal/ocr"
	"github.com/joseph-ayodele/immigration-docs/internal/pipeline"
	"github.com/joseph-ayodele/immigration-docs/internal/profiles"
	"github.com/joseph-ayodele/immigration-docs/internal/repository"
)

// StoreOptions picks the database: in-memory sqlite, a sqlite file, or
// postgres from DB_URL.
type StoreOptions struct {
	InMemory   bool
	SQLitePath string
}

type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	DB        *repository.DB
	Store     *repository.Store
	Processor *pipeline.Processor
	Documents *documents.Service
	Profiles  *profiles.Service
	Export    *export.Service

	closers []func() error
}

// NewProcessor builds the document pipeline from cfg. The returned close
// function releases the vision cache.
func NewProcessor(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*pipeline.Processor, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ocrx := ocr.NewExtractor(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		MinTextChars:  cfg.OCR.MinTextChars,
		PSM:           cfg.OCR.PSM,
	}, logger)
	text := extract.NewOCRAdapter(ocrx, logger)

	store, closeCache := cache.Open(ctx, cfg.Cache, logger)
	vision, err := providers.NewVisionExtractor(ctx, cfg.Vision, store, cfg.Cache.TTL, logger)
	if err != nil {
		_ = closeCache()
		return nil, nil, err
	}
	logger.Info("pipeline.configured",
		"vision_provider", cfg.Vision.Provider,
		"vision_enabled", vision.Enabled(),
		"cache", cacheKind(cfg.Cache),
	)
	p := pipeline.NewProcessor(logger, text, extract.New(logger), vision, text, mapping.NewMapper(logger))
	return p, closeCache, nil
}

// OpenStore opens and migrates the database selected by opts.
func OpenStore(ctx context.Context, cfg *common.Config, opts StoreOptions, logger *slog.Logger) (*repository.DB, error) {
	var (
		db  *repository.DB
		err error
	)
	switch {
	case opts.InMemory:
		db, err = repository.OpenSQLite(ctx, ":memory:", logger)
	case opts.SQLitePath != "":
		db, err = repository.OpenSQLite(ctx, opts.SQLitePath, logger)
	default:
		if cfg.Database.DSN == "" {
			return nil, common.NewAppError("CONFIG_ERROR", "DB_URL is required unless a sqlite store is selected", common.ErrInvalidInput)
		}
		db, err = repository.Open(ctx, cfg.Database, logger)
		if err == nil {
			err = db.HealthCheck(ctx, cfg.Database.DialTimeout)
		}
	}
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New builds the full application: pipeline, store and services.
func New(ctx context.Context, cfg *common.Config, opts StoreOptions, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(false); err != nil {
		return nil, err
	}
	proc, closeCache, err := NewProcessor(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	db, err := OpenStore(ctx, cfg, opts, logger)
	if err != nil {
		_ = closeCache()
		return nil, err
	}
	store := repository.NewStore(db, logger)
	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Store:     store,
		Processor: proc,
		Documents: documents.NewService(store, proc, logger),
		Profiles:  profiles.NewService(store, logger),
		Export:    export.NewService(store, logger),
		closers:   []func() error{db.Close, closeCache},
	}, nil
}

// Close releases the database and the cache.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func cacheKind(c common.CacheConfig) string {
	switch {
	case c.Disabled:
		return "disabled"
	case c.RedisAddr != "":
		return "redis"
	default:
		return "memory"
	}
}
