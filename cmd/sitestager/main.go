package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitestager/internal/build"
	"git.home.luguber.info/inful/sitestager/internal/config"
	"git.home.luguber.info/inful/sitestager/internal/metrics"
	"git.home.luguber.info/inful/sitestager/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"sitestager.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Override the output directory"`
	} `cmd:"" help:"Run one full clean build of the site"`

	Watch struct {
		Output   string        `short:"o" help:"Override the output directory"`
		Debounce time.Duration `help:"Delay applied before rebuilding after a change" default:"500ms"`
		Metrics  string        `help:"Listen address for Prometheus metrics (empty disables)"`
	} `cmd:"" help:"Rebuild the site whenever the source tree changes"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch kctx.Command() {
	case "build":
		cfg, err := loadConfig(CLI.Build.Output)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		b := build.New(cfg)
		os.Exit(b.Run(context.Background()))
	case "watch":
		cfg, err := loadConfig(CLI.Watch.Output)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runWatch(cfg); err != nil {
			slog.Error("Watch failed", "error", err)
			os.Exit(1)
		}
	}
}

// loadConfig loads the configuration file (falling back to defaults when it
// does not exist), applies the output override, and resolves paths.
func loadConfig(outputOverride string) (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(CLI.Config); os.IsNotExist(err) {
		slog.Debug("No configuration file found, using defaults", "path", CLI.Config)
		cfg = config.Default()
	} else {
		loaded, err := config.Load(CLI.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if outputOverride != "" {
		cfg.Output.Directory = outputOverride
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runWatch(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if CLI.Watch.Metrics != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		go func() {
			slog.Info("Serving metrics", "addr", CLI.Watch.Metrics)
			if err := http.ListenAndServe(CLI.Watch.Metrics, metrics.HTTPHandler(reg)); err != nil {
				slog.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	b := build.New(cfg, build.WithRecorder(recorder))

	// Initial full build; watch mode keeps running even if it fails so a fix
	// to the source tree triggers a fresh attempt.
	if status := b.Run(ctx); status != 0 {
		slog.Warn("Initial build finished with failures", "status", status)
	}

	w, err := watch.New(cfg, CLI.Watch.Debounce, b.Run)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := w.Stop(); err != nil {
			slog.Warn("Failed to stop watcher", "error", err)
		}
	}()

	slog.Info("Watching for changes, press Ctrl-C to stop")
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping watcher")
	return nil
}
