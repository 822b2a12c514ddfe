package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/vellum/internal/cliout"
	"github.com/jackzampolin/vellum/internal/config"
	"github.com/jackzampolin/vellum/internal/convert"
	"github.com/jackzampolin/vellum/pkg/vellum"
)

var (
	processOutputDir      string
	processConcurrency    int
	processMaintainFormat bool
	processModel          string
	processPages          string
	processTempDir        string
	processKeepTemp       bool
	processAPIKey         string
	processBaseURL        string
	processIncludeContent bool

	processTemperature      float64
	processTopP             float64
	processFrequencyPenalty float64
	processPresencePenalty  float64
	processMaxTokens        int64
)

// processSummary is the structured output printed after a run. Page
// content is omitted unless --include-content is set so large documents
// stay readable on the terminal.
type processSummary struct {
	FileName       string        `json:"file_name" yaml:"file_name"`
	Pages          int           `json:"pages" yaml:"pages"`
	InputTokens    int64         `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens   int64         `json:"output_tokens" yaml:"output_tokens"`
	CompletionTime int64         `json:"completion_time_ms" yaml:"completion_time_ms"`
	OutputPath     string        `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Content        []vellum.Page `json:"content,omitempty" yaml:"content,omitempty"`
}

var processCmd = &cobra.Command{
	Use:   "process <file|url>",
	Short: "Transcribe a document to markdown",
	Long: `Process renders each page of a document to an image, sends the images
to a vision model, and assembles the per-page markdown in page order.

The argument may be a local file or an http(s) URL. Office formats
(docx, pptx, xlsx, ...) are converted to PDF first.

Examples:
  vellum process report.pdf
  vellum process https://example.com/report.pdf --output-dir ./out
  vellum process slides.pptx --pages 1,3,5 --concurrency 4
  vellum process minutes.docx --maintain-format`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgManager.Get()

		pages, err := parsePages(processPages)
		if err != nil {
			return err
		}

		runCfg := vellum.Config{
			FilePath:       args[0],
			APIKey:         resolveAPIKey(processAPIKey, cfg),
			Model:          firstNonEmpty(processModel, cfg.Provider.Model),
			BaseURL:        firstNonEmpty(processBaseURL, cfg.Provider.BaseURL),
			Concurrency:    processConcurrency,
			MaintainFormat: processMaintainFormat || cfg.Pipeline.MaintainFormat,
			OutputDir:      firstNonEmpty(processOutputDir, cfg.Output.Dir),
			Pages:          pages,
			TempDir:        firstNonEmpty(processTempDir, cfg.TempDir),
			DisableCleanup: processKeepTemp || !cfg.Cleanup,
			LLMParams: vellum.LLMParams{
				Temperature:      processTemperature,
				TopP:             processTopP,
				FrequencyPenalty: processFrequencyPenalty,
				PresencePenalty:  processPresencePenalty,
				MaxTokens:        processMaxTokens,
			},
			RateLimit:  cfg.Provider.RateLimit,
			MaxRetries: cfg.Provider.MaxRetries,
			Timeout:    time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
			Converter:  buildConverter(cfg),
		}
		if runCfg.Concurrency == 0 {
			runCfg.Concurrency = cfg.Pipeline.Concurrency
		}

		res, runErr := vellum.Run(cmd.Context(), runCfg)
		if res != nil {
			summary := processSummary{
				FileName:       res.FileName,
				Pages:          len(res.Pages),
				InputTokens:    res.InputTokens,
				OutputTokens:   res.OutputTokens,
				CompletionTime: res.CompletionTime,
			}
			if runCfg.OutputDir != "" && runErr == nil {
				summary.OutputPath = filepath.Join(runCfg.OutputDir, res.FileName+".md")
			}
			if processIncludeContent {
				summary.Content = res.Pages
			}
			if outErr := cliout.Output(summary); outErr != nil {
				return outErr
			}
		}
		return runErr
	},
}

// parsePages turns the --pages flag value into a page selection.
// Accepts "all" (or empty), a single page number, or a comma-separated
// list like "1,3,5". Pages are 1-based.
func parsePages(s string) (vellum.PageSelection, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return vellum.AllPages(), nil
	}
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		list := make([]int, 0, len(parts))
		for _, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return vellum.PageSelection{}, fmt.Errorf("invalid page list %q: %w", s, err)
			}
			list = append(list, n)
		}
		return vellum.PageList(list...), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return vellum.PageSelection{}, fmt.Errorf("invalid page selection %q: %w", s, err)
	}
	return vellum.SinglePage(n), nil
}

// resolveAPIKey picks the provider key: flag, then VELLUM_API_KEY, then
// the config file (which may reference another env var via ${...}).
func resolveAPIKey(flagValue string, cfg *config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	if key := os.Getenv("VELLUM_API_KEY"); key != "" {
		return key
	}
	return cfg.ResolveAPIKey()
}

// buildConverter returns a Gotenberg-backed office converter when an
// endpoint is configured. With no endpoint the library falls back to a
// local soffice binary.
func buildConverter(cfg *config.Config) vellum.Converter {
	if cfg.Gotenberg.URL == "" {
		return nil
	}
	return convert.NewGotenbergConverter(cfg.Gotenberg.URL, nil, nil)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	processCmd.Flags().StringVar(&processOutputDir, "output-dir", "", "Directory for the assembled markdown file")
	processCmd.Flags().IntVarP(&processConcurrency, "concurrency", "c", 0, "Max concurrent page completions (0 = config value)")
	processCmd.Flags().BoolVar(&processMaintainFormat, "maintain-format", false, "Process pages sequentially, feeding each page the prior page's output")
	processCmd.Flags().StringVarP(&processModel, "model", "m", "", "Vision model to use (overrides config)")
	processCmd.Flags().StringVarP(&processPages, "pages", "p", "all", "Pages to process: \"all\", a page number, or a comma-separated list")
	processCmd.Flags().StringVar(&processTempDir, "temp-dir", "", "Base directory for run workspaces (overrides config)")
	processCmd.Flags().BoolVar(&processKeepTemp, "keep-temp", false, "Keep the run workspace instead of deleting it")
	processCmd.Flags().StringVar(&processAPIKey, "api-key", "", "Provider API key (overrides VELLUM_API_KEY and config)")
	processCmd.Flags().StringVar(&processBaseURL, "base-url", "", "Provider base URL for OpenAI-compatible endpoints")
	processCmd.Flags().BoolVar(&processIncludeContent, "include-content", false, "Include per-page markdown in the command output")
	processCmd.Flags().Float64Var(&processTemperature, "temperature", 0, "Sampling temperature")
	processCmd.Flags().Float64Var(&processTopP, "top-p", 0, "Nucleus sampling probability mass")
	processCmd.Flags().Float64Var(&processFrequencyPenalty, "frequency-penalty", 0, "Frequency penalty")
	processCmd.Flags().Float64Var(&processPresencePenalty, "presence-penalty", 0, "Presence penalty")
	processCmd.Flags().Int64Var(&processMaxTokens, "max-tokens", 0, "Max completion tokens per page (0 = provider default)")

	rootCmd.AddCommand(processCmd)
}
