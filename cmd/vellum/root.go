package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/vellum/internal/cliout"
	"github.com/jackzampolin/vellum/internal/config"
	"github.com/jackzampolin/vellum/version"
)

var (
	cfgFile      string
	logLevel     string
	logJSON      bool
	outputFormat string

	cfgManager *config.Manager
)

var rootCmd = &cobra.Command{
	Use:   "vellum",
	Short: "Document transcription pipeline powered by vision models",
	Long: `Vellum turns documents into clean per-page markdown by rendering each
page to an image and transcribing it with a vision model.

The pipeline includes:
  - PDF and office-document input, from local paths or URLs
  - Bounded-parallel page transcription, or sequential runs that keep
    table and list formatting consistent across page breaks
  - Structured extraction guided by a JSON schema
  - An inbox watcher that processes documents as they arrive`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.vellum/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&logJSON, "log-json", false, "log as JSON",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "", "output format: yaml or json (default from config)",
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Pull in a local .env before config resolves ${ENV_VAR} keys.
		_ = godotenv.Load()

		// config init runs before a config file exists, so don't require one.
		if cmd == configInitCmd {
			return nil
		}

		mgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfgManager = mgr
		cfg := mgr.Get()

		setupLogger(cfg)

		format := outputFormat
		if format == "" {
			format = cfg.Output.Format
		}
		cliout.SetFormat(format)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

// setupLogger installs the process-wide slog handler. Logs go to stderr so
// stdout stays clean for command output.
func setupLogger(cfg *config.Config) {
	level := logLevel
	if level == "" {
		level = cfg.Log.Level
	}

	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if logJSON || cfg.Log.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
