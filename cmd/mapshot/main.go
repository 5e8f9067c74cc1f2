// Command mapshot captures screenshots of embedded web maps.
//
// Usage:
//
//	mapshot -config mapshot.yaml                      # capture all configured targets
//	mapshot -url https://example.com/map -out map.png # quick single-target capture
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/mapshot/mapshot"
)

func main() {
	configPath := flag.String("config", "", "path to mapshot.yaml config file")
	singleURL := flag.String("url", "", "capture a single URL")
	outPath := flag.String("out", "", "output file for -url mode (default map.png)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *singleURL, *outPath); err != nil {
		logger.Error("mapshot: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, singleURL, outPath string) error {
	switch {
	case singleURL != "":
		return runSingle(ctx, logger, singleURL, outPath)
	case configPath != "":
		return runConfig(ctx, logger, configPath)
	}

	fmt.Fprintln(os.Stderr, "usage: mapshot -config <file> | -url <url> [-out <file>]")
	os.Exit(1)
	return nil
}

func runSingle(ctx context.Context, logger *slog.Logger, url, outPath string) error {
	if outPath == "" {
		outPath = "map.png"
	}

	cfg := &mapshot.Config{
		OutputDir: ".",
		Targets: []mapshot.TargetConfig{{
			ID:     mapshot.NewTargetID(),
			URL:    url,
			Output: outPath,
		}},
	}
	cfg.ApplyDefaults()

	return execute(ctx, logger, cfg, mapshot.NewStdoutSink(nil))
}

func runConfig(ctx context.Context, logger *slog.Logger, path string) error {
	cfg, err := mapshot.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var sinks []mapshot.Sink
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, mapshot.NewStdoutSink(nil))
		case "webhook":
			sinks = append(sinks, mapshot.NewWebhookSink(sc.URL, logger))
		default:
			logger.Warn("mapshot: unknown sink type", "type", sc.Type)
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, mapshot.NewStdoutSink(nil))
	}

	return execute(ctx, logger, cfg, sinks...)
}

func execute(ctx context.Context, logger *slog.Logger, cfg *mapshot.Config, sinks ...mapshot.Sink) error {
	r := mapshot.New(cfg, logger, sinks...)
	if err := r.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer r.Stop()

	rep, err := r.Run(ctx)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	logger.Info("mapshot: done",
		"run", rep.RunID, "captured", rep.Captured, "placeholders", rep.Placeholders)
	return nil
}
