package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Providers   ProvidersConfig `toml:"providers"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Brave       BraveConfig     `toml:"brave"`
	Render      RenderConfig    `toml:"render"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// PipelineConfig contains job pipeline tuning
type PipelineConfig struct {
	Workers       int    `toml:"workers"`        // Concurrent job executions (default: 4)
	QueueCapacity int    `toml:"queue_capacity"` // Buffered admissions beyond running jobs (default: 64)
	StageTimeout  string `toml:"stage_timeout"`  // Per external call timeout as duration string (default: "90s")
	RetryBackoff  string `toml:"retry_backoff"`  // Delay before the single stage-level retry (default: "2s")
}

// StageTimeoutDuration parses the stage timeout, falling back to 90s.
func (p PipelineConfig) StageTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(p.StageTimeout); err == nil && d > 0 {
		return d
	}
	return 90 * time.Second
}

// RetryBackoffDuration parses the retry backoff, falling back to 2s.
func (p PipelineConfig) RetryBackoffDuration() time.Duration {
	if d, err := time.ParseDuration(p.RetryBackoff); err == nil && d > 0 {
		return d
	}
	return 2 * time.Second
}

// ProvidersConfig selects the live capability providers
type ProvidersConfig struct {
	Structure string `toml:"structure"` // "claude" or "mock" (default: "claude")
	Search    string `toml:"search"`    // "gemini", "brave" or "mock" (default: "gemini")
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (ANTHROPIC_API_KEY or config)
	Model       string  `toml:"model"`       // Model for storyline generation
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.4)
}

// GeminiConfig contains Google Gemini API configuration for grounded search
type GeminiConfig struct {
	APIKey string `toml:"api_key"` // Google Gemini API key
	Model  string `toml:"model"`   // Model for grounded search
}

// BraveConfig contains Brave Search API configuration
type BraveConfig struct {
	APIKey    string `toml:"api_key"`    // Brave Search subscription token
	RateLimit string `toml:"rate_limit"` // Minimum interval between requests (default: "1s")
	Timeout   string `toml:"timeout"`    // HTTP request timeout (default: "15s")
}

// RenderConfig contains deck rendering configuration
type RenderConfig struct {
	DecksDir     string `toml:"decks_dir"`     // Output directory for rendered decks
	TemplatesDir string `toml:"templates_dir"` // Directory containing deck template YAML files
	Template     string `toml:"template"`      // Default template name (default: "default")
}

// SchedulerConfig contains the maintenance sweep configuration
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format (default: every minute)
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in suadeo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Pipeline: PipelineConfig{
			Workers:       4,
			QueueCapacity: 64,
			StageTimeout:  "90s",
			RetryBackoff:  "2s",
		},
		Providers: ProvidersConfig{
			Structure: "claude",
			Search:    "gemini",
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Temperature: 0.4,
		},
		Gemini: GeminiConfig{
			APIKey: "",
			Model:  "gemini-3-flash-preview",
		},
		Brave: BraveConfig{
			APIKey:    "",
			RateLimit: "1s",
			Timeout:   "15s",
		},
		Render: RenderConfig{
			DecksDir:     "./data/decks",
			TemplatesDir: "./deck-templates",
			Template:     "default",
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Schedule: "0 * * * * *", // every minute
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// An empty path skips file loading and uses defaults plus env overrides.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SUADEO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("SUADEO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SUADEO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if path := os.Getenv("SUADEO_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if level := os.Getenv("SUADEO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if workers := os.Getenv("SUADEO_PIPELINE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			config.Pipeline.Workers = w
		}
	}

	if provider := os.Getenv("SUADEO_STRUCTURE_PROVIDER"); provider != "" {
		config.Providers.Structure = provider
	}
	if provider := os.Getenv("SUADEO_SEARCH_PROVIDER"); provider != "" {
		config.Providers.Search = provider
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("BRAVE_API_KEY"); key != "" {
		config.Brave.APIKey = key
	}
}

// Validate checks configuration consistency for the selected providers.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline workers must be positive: %d", c.Pipeline.Workers)
	}
	switch c.Providers.Structure {
	case "claude":
		if c.Claude.APIKey == "" {
			return fmt.Errorf("claude structure provider selected but no API key configured")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown structure provider: %s", c.Providers.Structure)
	}
	switch c.Providers.Search {
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("gemini search provider selected but no API key configured")
		}
	case "brave":
		if c.Brave.APIKey == "" {
			return fmt.Errorf("brave search provider selected but no API key configured")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown search provider: %s", c.Providers.Search)
	}
	return nil
}
