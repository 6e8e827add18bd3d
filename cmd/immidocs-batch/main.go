package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/immigration-docs/internal/app"
	"github.com/joseph-ayodele/immigration-docs/internal/async"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		sqlite  = flag.String("sqlite", "", "SQLite database file (otherwise DB_URL)")
		dir     = flag.String("dir", "", "directory to process documents from (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		profile = flag.String("profile", "Local Batch", "profile name the documents belong to")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "documents.xlsx")
	}

	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stdout, "json", cfg.LogLevel)

	ctx := context.Background()

	a, err := app.New(ctx, cfg, app.StoreOptions{InMemory: *inmem, SQLitePath: *sqlite}, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	p, err := a.Profiles.GetOrCreate(ctx, *profile)
	if err != nil {
		logger.Error("failed to get or create profile", "error", err)
		os.Exit(1)
	}
	logger.Info("using profile", "id", p.ID, "name", p.Name)

	candidates, stats, err := ingest.WalkDirectory(*dir, true)
	if err != nil {
		logger.Error("failed to walk directory", "error", err)
		os.Exit(1)
	}
	logger.Info("scan complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	queue := async.NewWorkerQueue(a.HandleJob, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	queued, skipped := 0, 0
	for _, c := range candidates {
		if c.Err != "" || c.DuplicateOf != "" {
			continue
		}
		// Content already stored for this profile from an earlier run.
		stored, err := a.AlreadyStored(ctx, p.ID, c.HashHex)
		if err != nil {
			logger.Error("failed to check existing document", "path", c.Path, "error", err)
			continue
		}
		if stored {
			skipped++
			continue
		}
		if err := queue.Enqueue(ctx, async.Job{ProfileID: p.ID, Path: c.Path, MIMEType: c.MIMEType}); err != nil {
			logger.Error("failed to enqueue", "path", c.Path, "error", err)
			continue
		}
		queued++
	}
	queue.Shutdown(ctx)
	processed, failures := queue.Stats()

	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := a.Export.DocumentsXLSX(ctx, p.ID)
	if err != nil {
		logger.Error("failed to export documents", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"files_queued", queued,
		"files_skipped", skipped,
		"files_processed", processed,
		"failures", failures,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files queued: %d\n", queued)
	fmt.Printf("- Already stored: %d\n", skipped)
	fmt.Printf("- Files processed: %d\n", processed)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
}
