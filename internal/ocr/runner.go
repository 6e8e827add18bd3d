package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// execRunner runs tesseract and pdftoppm. Tesseract's own OpenMP threading is
// pinned to one thread since documents are already processed in parallel.
type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "OMP_THREAD_LIMIT=1")
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		logger.Warn("ocr.exec.failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", elapsed,
			"error", err,
			"stderr", truncate(errb.String(), 4<<10),
		)
		return out.Bytes(), errb.Bytes(), execError(ctx, err)
	}
	logger.Debug("ocr.exec.ok", "cmd", name, "duration_ms", elapsed, "stdout_bytes", out.Len())
	return out.Bytes(), errb.Bytes(), nil
}

// execError labels a missing binary or a cancelled context; the message ends
// up in document warnings.
func execError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("not installed: %w", err)
	case ctx.Err() != nil:
		return fmt.Errorf("interrupted: %w", ctx.Err())
	default:
		return err
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
