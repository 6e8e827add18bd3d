package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/app"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/documents"
	"github.com/joseph-ayodele/immigration-docs/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		file    = flag.String("file", "", "document to process (required)")
		mime    = flag.String("mime", "", "MIME type (defaults to the file extension)")
		hint    = flag.String("hint", "", "document type hint, e.g. passport, i94, i797")
		profile = flag.String("profile", "", "store the result and reconcile this profile (by name)")
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		sqlite  = flag.String("sqlite", "", "SQLite database file (otherwise DB_URL)")
		timeout = flag.Duration("timeout", 3*time.Minute, "processing timeout")
	)
	flag.Parse()

	if *file == "" {
		printError("Error: --file is required\n")
		os.Exit(1)
	}
	if *mime == "" {
		*mime = constants.MIMEFromExt(filepath.Ext(*file))
	}

	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stderr, "text", cfg.LogLevel)

	data, err := os.ReadFile(*file)
	if err != nil {
		printError("Error: reading %s: %v\n", *file, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var out any
	if *profile == "" {
		if err := cfg.Validate(false); err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		proc, closeCache, err := app.NewProcessor(ctx, cfg, logger)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		defer closeCache()

		hintType, _ := constants.ParseDocumentType(*hint)
		res, err := proc.Process(ctx, pipeline.Input{
			Data:     data,
			MIMEType: *mime,
			Filename: filepath.Base(*file),
			Hint:     hintType,
		})
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		out = res
	} else {
		a, err := app.New(ctx, cfg, app.StoreOptions{InMemory: *inmem, SQLitePath: *sqlite}, logger)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		p, err := a.Profiles.GetOrCreate(ctx, *profile)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		res, err := a.Documents.Upload(ctx, documents.UploadRequest{
			ProfileID: p.ID.String(),
			Filename:  filepath.Base(*file),
			MIMEType:  *mime,
			Data:      data,
			Hint:      *hint,
		})
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		out = res
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		printError("Error: encoding result: %v\n", err)
		os.Exit(1)
	}
}
