package types

import "time"

// AIConfig holds settings for the structured-extraction service.
type AIConfig struct {
	// Model is the model identifier sent to the chat-completions endpoint
	// (e.g. "google/gemini-2.0-flash-exp:free").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the bearer token for the endpoint.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL is the OpenAI-compatible API root (default OpenRouter).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// MaxRetries is the number of retry attempts for a failed call (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// PipelineConfig holds settings for the per-document pipeline run.
type PipelineConfig struct {
	// Concurrency is the number of pages processed in parallel (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// SkipTitle disables the document-level course title lookup.
	SkipTitle bool `json:"skip_title" yaml:"skip_title" mapstructure:"skip_title"`
}

// ConversionBackend identifies the PDF text extraction tool.
type ConversionBackend string

const (
	BackendPdftotext  ConversionBackend = "pdftotext"
	BackendMarkitdown ConversionBackend = "markitdown"
	BackendText       ConversionBackend = "text"
)

// ConversionConfig holds settings for turning source files into pages.
type ConversionConfig struct {
	// Backend selects the conversion tool: pdftotext, markitdown, or text.
	Backend ConversionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// WorkDir is the base directory for handouts (contains raw/, text/).
	WorkDir string `json:"work_dir" yaml:"work_dir" mapstructure:"work_dir"`
}

// FetchConfig holds settings for downloading handouts.
type FetchConfig struct {
	Timeout   time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	UserAgent string        `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
	WorkDir   string        `json:"work_dir" yaml:"work_dir" mapstructure:"work_dir"`
}

// StoreConfig holds settings for the schedule database.
type StoreConfig struct {
	// DataDir contains the SQLite database and exports.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// MaxResults is the default list limit (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// Config groups every stage configuration.
type Config struct {
	AI         AIConfig         `json:"ai" yaml:"ai" mapstructure:"ai"`
	Pipeline   PipelineConfig   `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
}

// DefaultConfig returns the configuration used when no file or flag overrides it.
func DefaultConfig() Config {
	return Config{
		AI: AIConfig{
			Model:      "google/gemini-2.0-flash-exp:free",
			BaseURL:    "https://openrouter.ai/api/v1",
			MaxRetries: 3,
			Timeout:    60 * time.Second,
		},
		Pipeline: PipelineConfig{
			Concurrency: 1,
		},
		Conversion: ConversionConfig{
			Backend: BackendPdftotext,
			WorkDir: "handouts",
		},
		Fetch: FetchConfig{
			Timeout:   30 * time.Second,
			UserAgent: "exam-schedule/0.1",
			WorkDir:   "handouts",
		},
		Store: StoreConfig{
			DataDir:    "schedule",
			MaxResults: 50,
		},
	}
}
