package config

// Config holds vellum configuration.
// Loaded from config.yaml in the working directory or $HOME/.vellum,
// with VELLUM_ environment overrides.
type Config struct {
	Provider  ProviderCfg  `mapstructure:"provider" yaml:"provider"`
	Pipeline  PipelineCfg  `mapstructure:"pipeline" yaml:"pipeline"`
	Output    OutputCfg    `mapstructure:"output" yaml:"output"`
	Gotenberg GotenbergCfg `mapstructure:"gotenberg" yaml:"gotenberg"`
	TempDir   string       `mapstructure:"temp_dir" yaml:"temp_dir"`
	Cleanup   bool         `mapstructure:"cleanup" yaml:"cleanup"`
	Log       LogCfg       `mapstructure:"log" yaml:"log"`
}

// ProviderCfg configures the vision model endpoint.
type ProviderCfg struct {
	Model          string  `mapstructure:"model" yaml:"model"`                     // Vision model name
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`                 // API key (supports ${ENV_VAR} syntax)
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`               // Optional OpenAI-compatible endpoint
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"`           // Requests per second, 0 = unlimited
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // HTTP timeout per request
	MaxRetries     int     `mapstructure:"max_retries" yaml:"max_retries"`         // Client-level retry attempts
}

// PipelineCfg configures page processing.
type PipelineCfg struct {
	Concurrency    int  `mapstructure:"concurrency" yaml:"concurrency"`         // Max in-flight completions
	MaintainFormat bool `mapstructure:"maintain_format" yaml:"maintain_format"` // Sequential mode with prior-page context
}

// OutputCfg configures where and how results are written.
type OutputCfg struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`       // Markdown output directory, empty = don't write
	Format string `mapstructure:"format" yaml:"format"` // CLI summary format: yaml or json
}

// GotenbergCfg holds the office-conversion container configuration.
type GotenbergCfg struct {
	// URL points at an external Gotenberg instance. Empty means manage
	// a local container with the settings below.
	URL string `mapstructure:"url" yaml:"url"`
	// ContainerName is the Docker container name (default: vellum-gotenberg)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: gotenberg/gotenberg:8)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 3000)
	Port string `mapstructure:"port" yaml:"port"`
}

// LogCfg configures the slog handler built by the CLI.
type LogCfg struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderCfg{
			Model:          "gpt-4o",
			APIKey:         "${OPENAI_API_KEY}",
			TimeoutSeconds: 300,
			MaxRetries:     1,
		},
		Pipeline: PipelineCfg{
			Concurrency: 10,
		},
		Output: OutputCfg{
			Format: "yaml",
		},
		Gotenberg: GotenbergCfg{
			ContainerName: "vellum-gotenberg",
			Image:         "gotenberg/gotenberg:8",
			Port:          "3000",
		},
		Cleanup: true,
		Log: LogCfg{
			Level: "info",
		},
	}
}

// ResolveAPIKey returns the provider API key with ${ENV_VAR} references expanded.
func (c *Config) ResolveAPIKey() string {
	return ResolveEnvVars(c.Provider.APIKey)
}
