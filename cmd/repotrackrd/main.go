// Repotrackrd is the repo progress tracking daemon.
//
// It serves the project/skills HTTP API, runs the processing pipeline
// for registered repositories and sweeps all projects on a schedule.
//
// Usage:
//
//	# Start with defaults
//	repotrackrd
//
//	# Point at a config file and override via environment
//	repotrackrd -config repotrackr.yml
//	REPOTRACKR_SERVER_PORT=9090 repotrackrd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repotrackr/internal/config"
	"github.com/fyrsmithlabs/repotrackr/internal/fetch"
	"github.com/fyrsmithlabs/repotrackr/internal/httpapi"
	"github.com/fyrsmithlabs/repotrackr/internal/jobs"
	"github.com/fyrsmithlabs/repotrackr/internal/logging"
	"github.com/fyrsmithlabs/repotrackr/internal/pipeline"
	"github.com/fyrsmithlabs/repotrackr/internal/scheduler"
	"github.com/fyrsmithlabs/repotrackr/internal/store"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  repotrackrd            Start the daemon\n")
			fmt.Fprintf(os.Stderr, "  repotrackrd version    Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("repotrackrd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires all services together and blocks until the context is
// cancelled, then shuts everything down in reverse order.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting repotrackrd",
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Path),
		zap.Bool("scheduler", cfg.Scheduler.Enabled))

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		_ = st.Close()
	}()

	fetcher, err := fetch.New(cfg.Fetch.ScratchDir, cfg.Fetch.Timeout)
	if err != nil {
		return fmt.Errorf("initializing fetcher: %w", err)
	}

	tracker := jobs.NewTracker(st, logger, cfg.Pipeline.MaxRetries)
	pipe := pipeline.New(fetcher, st, tracker, logger, pipeline.Config{
		RunTimeout:    cfg.Pipeline.RunTimeout,
		StaleDays:     cfg.Pipeline.StaleDays,
		SnapshotKeep:  cfg.Pipeline.SnapshotKeep,
		RatePerMinute: cfg.Fetch.RatePerMinute,
	})

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(pipe, st, logger, cfg.Scheduler.Spec)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		defer sched.Stop()
	}

	srv, err := httpapi.NewServer(st, pipe, tracker, logger, httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
