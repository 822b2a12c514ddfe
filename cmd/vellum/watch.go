package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/vellum/internal/config"
	"github.com/jackzampolin/vellum/internal/watch"
	"github.com/jackzampolin/vellum/pkg/vellum"
)

var (
	watchSettle         time.Duration
	watchOutputDir      string
	watchConcurrency    int
	watchMaintainFormat bool
	watchModel          string
	watchTempDir        string
	watchAPIKey         string
	watchBaseURL        string
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and transcribe documents dropped into it",
	Long: `Watch runs until interrupted, transcribing every supported document
that lands in the given directory. A file is picked up once it stops
changing for the settle window, so slow copies and downloads are not
read half-written. Files are processed one at a time in arrival order.

The config file is re-read when it changes, so model or provider
changes take effect without a restart.

Examples:
  vellum watch ./inbox --output-dir ./out
  vellum watch /srv/scans --settle 5s --maintain-format`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := slog.Default()

		outputDir := firstNonEmpty(watchOutputDir, cfgManager.Get().Output.Dir)
		if outputDir == "" {
			return fmt.Errorf("watch requires an output directory: pass --output-dir or set output.dir in the config file")
		}

		cfgManager.OnChange(func(*config.Config) {
			logger.Info("configuration reloaded")
		})
		cfgManager.WatchConfig()

		handler := func(ctx context.Context, path string) {
			cfg := cfgManager.Get()
			runCfg := vellum.Config{
				FilePath:       path,
				APIKey:         resolveAPIKey(watchAPIKey, cfg),
				Model:          firstNonEmpty(watchModel, cfg.Provider.Model),
				BaseURL:        firstNonEmpty(watchBaseURL, cfg.Provider.BaseURL),
				Concurrency:    watchConcurrency,
				MaintainFormat: watchMaintainFormat || cfg.Pipeline.MaintainFormat,
				OutputDir:      outputDir,
				TempDir:        firstNonEmpty(watchTempDir, cfg.TempDir),
				DisableCleanup: !cfg.Cleanup,
				RateLimit:      cfg.Provider.RateLimit,
				MaxRetries:     cfg.Provider.MaxRetries,
				Timeout:        time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
				Converter:      buildConverter(cfg),
			}
			if runCfg.Concurrency == 0 {
				runCfg.Concurrency = cfg.Pipeline.Concurrency
			}

			res, err := vellum.Run(ctx, runCfg)
			if err != nil {
				logger.Error("processing failed", "file", path, "error", err)
				return
			}
			logger.Info("document processed",
				"file", path,
				"pages", len(res.Pages),
				"input_tokens", res.InputTokens,
				"output_tokens", res.OutputTokens,
				"duration_ms", res.CompletionTime,
			)
		}

		w, err := watch.New(watch.Config{
			Dir:     args[0],
			Settle:  watchSettle,
			Handler: handler,
			Logger:  logger,
		})
		if err != nil {
			return err
		}

		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle, "How long a file must be quiet before it is processed")
	watchCmd.Flags().StringVar(&watchOutputDir, "output-dir", "", "Directory for assembled markdown files")
	watchCmd.Flags().IntVarP(&watchConcurrency, "concurrency", "c", 0, "Max concurrent page completions per document (0 = config value)")
	watchCmd.Flags().BoolVar(&watchMaintainFormat, "maintain-format", false, "Process pages sequentially, feeding each page the prior page's output")
	watchCmd.Flags().StringVarP(&watchModel, "model", "m", "", "Vision model to use (overrides config)")
	watchCmd.Flags().StringVar(&watchTempDir, "temp-dir", "", "Base directory for run workspaces (overrides config)")
	watchCmd.Flags().StringVar(&watchAPIKey, "api-key", "", "Provider API key (overrides VELLUM_API_KEY and config)")
	watchCmd.Flags().StringVar(&watchBaseURL, "base-url", "", "Provider base URL for OpenAI-compatible endpoints")

	rootCmd.AddCommand(watchCmd)
}
