package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/vellum/internal/cliout"
	"github.com/jackzampolin/vellum/pkg/vellum"
)

var (
	extractSchemaPath string
	extractModel      string
	extractPages      string
	extractTempDir    string
	extractKeepTemp   bool
	extractAPIKey     string
	extractBaseURL    string

	extractTemperature      float64
	extractTopP             float64
	extractFrequencyPenalty float64
	extractPresencePenalty  float64
	extractMaxTokens        int64
)

var extractCmd = &cobra.Command{
	Use:   "extract <file|url>",
	Short: "Extract structured data from a document",
	Long: `Extract renders the document's pages to images and asks the vision
model for a single JSON object matching the given JSON Schema. The
response is validated against the schema before it is returned.

Examples:
  vellum extract invoice.pdf --schema invoice.schema.json
  vellum extract receipt.png --schema receipt.schema.json -o json
  vellum extract statement.pdf --schema fields.json --pages 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgManager.Get()

		pages, err := parsePages(extractPages)
		if err != nil {
			return err
		}

		res, err := vellum.Extract(cmd.Context(), vellum.ExtractConfig{
			FilePath:       args[0],
			SchemaPath:     extractSchemaPath,
			APIKey:         resolveAPIKey(extractAPIKey, cfg),
			Model:          firstNonEmpty(extractModel, cfg.Provider.Model),
			BaseURL:        firstNonEmpty(extractBaseURL, cfg.Provider.BaseURL),
			Pages:          pages,
			TempDir:        firstNonEmpty(extractTempDir, cfg.TempDir),
			DisableCleanup: extractKeepTemp || !cfg.Cleanup,
			LLMParams: vellum.LLMParams{
				Temperature:      extractTemperature,
				TopP:             extractTopP,
				FrequencyPenalty: extractFrequencyPenalty,
				PresencePenalty:  extractPresencePenalty,
				MaxTokens:        extractMaxTokens,
			},
			RateLimit:  cfg.Provider.RateLimit,
			MaxRetries: cfg.Provider.MaxRetries,
			Timeout:    time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
			Converter:  buildConverter(cfg),
		})
		if err != nil {
			return err
		}
		return cliout.Output(res)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractSchemaPath, "schema", "", "Path to the JSON Schema describing the fields to extract (required)")
	extractCmd.Flags().StringVarP(&extractModel, "model", "m", "", "Vision model to use (overrides config)")
	extractCmd.Flags().StringVarP(&extractPages, "pages", "p", "all", "Pages to send: \"all\", a page number, or a comma-separated list")
	extractCmd.Flags().StringVar(&extractTempDir, "temp-dir", "", "Base directory for run workspaces (overrides config)")
	extractCmd.Flags().BoolVar(&extractKeepTemp, "keep-temp", false, "Keep the run workspace instead of deleting it")
	extractCmd.Flags().StringVar(&extractAPIKey, "api-key", "", "Provider API key (overrides VELLUM_API_KEY and config)")
	extractCmd.Flags().StringVar(&extractBaseURL, "base-url", "", "Provider base URL for OpenAI-compatible endpoints")
	extractCmd.Flags().Float64Var(&extractTemperature, "temperature", 0, "Sampling temperature")
	extractCmd.Flags().Float64Var(&extractTopP, "top-p", 0, "Nucleus sampling probability mass")
	extractCmd.Flags().Float64Var(&extractFrequencyPenalty, "frequency-penalty", 0, "Frequency penalty")
	extractCmd.Flags().Float64Var(&extractPresencePenalty, "presence-penalty", 0, "Presence penalty")
	extractCmd.Flags().Int64Var(&extractMaxTokens, "max-tokens", 0, "Max completion tokens (0 = provider default)")
	_ = extractCmd.MarkFlagRequired("schema")

	rootCmd.AddCommand(extractCmd)
}
