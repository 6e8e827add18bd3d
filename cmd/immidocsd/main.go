package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/app"
	"github.com/joseph-ayodele/immigration-docs/internal/async"
	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/ingest"
)

func main() {
	// Structured logger without time/level, the output is meant for a supervisor.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: common.ParseLevel(os.Getenv("LOG_LEVEL")),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if cfg.Inbox.Dir == "" {
		logger.Error("missing INBOX_DIR environment variable")
		os.Exit(1)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.StoreOptions{SQLitePath: os.Getenv("SQLITE_PATH")}, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	profile, err := a.Profiles.GetOrCreate(ctx, cfg.Inbox.ProfileName)
	if err != nil {
		logger.Error("failed to get or create inbox profile", "error", err)
		os.Exit(1)
	}

	queue := async.NewWorkerQueue(a.HandleJob, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Inbox.Dir},
		InitialScan: cfg.Inbox.InitialScan,
		SkipHidden:  true,
		Debounce:    cfg.Inbox.Debounce,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to watch inbox", "dir", cfg.Inbox.Dir, "error", err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	logger.Info("immidocsd listening", "addr", addr, "inbox", cfg.Inbox.Dir, "profile", profile.ID)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	go monitorDB(ctx, a, healthServer, logger)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case path, ok := <-paths:
			if !ok {
				break loop
			}
			job := async.Job{ProfileID: profile.ID, Path: path, MIMEType: constants.MIMEFromExt(filepath.Ext(path))}
			if err := queue.Enqueue(ctx, job); err != nil {
				logger.Warn("inbox.enqueue.failed", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("inbox.watch.error", "error", err)
		}
	}

	logger.Info("shutting down")
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.ProcessTimeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
}

// monitorDB flips the health status while the database is unreachable.
func monitorDB(ctx context.Context, a *app.App, hs *health.Server, logger *slog.Logger) {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		err := a.DB.HealthCheck(ctx, 5*time.Second)
		switch {
		case err != nil && serving:
			logger.Warn("db.health.fail", "error", err)
			hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
			serving = false
		case err == nil && !serving:
			logger.Info("db.health.ok")
			hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
			serving = true
		}
	}
}
