package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/qepting91/burneddit/internal/burn"
	"github.com/qepting91/burneddit/internal/collector"
	"github.com/qepting91/burneddit/internal/config"
	"github.com/qepting91/burneddit/internal/metrics"
	"github.com/qepting91/burneddit/internal/report"
	"github.com/qepting91/burneddit/internal/storage"
	"github.com/spf13/cobra"
)

type options struct {
	configPath  string
	examplePath string
	logFormat   string
	logLevel    string
	dryRun      bool
	auditFile   string
	metricsFile string
	reportFile  string
}

func main() {
	// 1. Setup
	godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "burneddit",
		Short: "Delete or overwrite your old Reddit submissions and comments",
		Long: `burneddit makes a single pass over every account in the config file and
deletes or overwrites submissions and comments older than the configured age.

The config is checked against the example file first; if any key is missing
nothing is touched.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", envOr("BURNEDDIT_CONFIG", config.DefaultPath), "config file path")
	f.StringVarP(&o.examplePath, "example", "e", envOr("BURNEDDIT_EXAMPLE", config.DefaultExamplePath), "reference example file path")
	f.StringVar(&o.logFormat, "log-format", envOr("BURNEDDIT_LOG_FORMAT", "json"), "log format (json, text)")
	f.StringVar(&o.logLevel, "log-level", envOr("BURNEDDIT_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	f.BoolVar(&o.dryRun, "dry-run", false, "report what would be burned without changing anything")
	f.StringVar(&o.auditFile, "audit-file", "", "append every record to this NDJSON file")
	f.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics to this file when done")
	f.StringVar(&o.reportFile, "report-file", "", "write an HTML summary to this file when done")
	return cmd
}

func run(ctx context.Context, o *options) error {
	logger, err := newLogger(o.logFormat, o.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	// 2. Load and check config before any network call
	cfg, err := config.Load(o.configPath, o.examplePath, logger)
	if err != nil {
		logConfigError(logger, err)
		return err
	}

	// 3. Initialize Client (Using Factory)
	opener, err := collector.NewCollector()
	if err != nil {
		logger.Error("Failed to initialize collector", "error", err)
		return err
	}
	logger.Info("Collector initialized", "mode", envOr("COLLECTOR_MODE", "api"))

	runID := uuid.NewString()
	runOpts := []burn.Option{burn.WithRunID(runID), burn.WithDryRun(o.dryRun)}
	if o.auditFile != "" {
		audit, err := storage.OpenAudit(o.auditFile)
		if err != nil {
			logger.Error("Failed to open audit file", "path", o.auditFile, "error", err)
			return err
		}
		defer audit.Close()
		runOpts = append(runOpts, burn.WithRecordWriter(audit))
	}

	// 4. Graceful Shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting burn", "run_id", runID, "users", len(cfg.Users), "dry_run", o.dryRun)
	summary, runErr := burn.NewRunner(opener, logger, runOpts...).Run(ctx, cfg)
	if runErr != nil {
		logger.Error("Burn aborted", "error", runErr)
	}

	// 5. Outputs
	if o.metricsFile != "" {
		rec := metrics.NewRecorder()
		rec.Observe(summary)
		if err := rec.WriteTextfile(o.metricsFile); err != nil {
			logger.Warn("Failed to write metrics", "error", err)
		}
	}
	if o.reportFile != "" {
		if err := report.WriteFile(o.reportFile, summary); err != nil {
			logger.Warn("Failed to write report", "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("Burn complete", "run_id", runID)
	return nil
}

func logConfigError(logger *slog.Logger, err error) {
	var mke *config.MissingKeysError
	if errors.As(err, &mke) {
		for _, key := range mke.Keys {
			logger.Error("Missing config file key", "key", key)
		}
		return
	}
	logger.Error("Unable to load config", "error", err)
}

func newLogger(format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	hopts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, hopts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, hopts)
	default:
		return nil, fmt.Errorf("invalid log format %q (use 'json' or 'text')", format)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
