package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Firecrawl FirecrawlConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
	Apify     ApifyConfig     `yaml:"apify" mapstructure:"apify"`
	Reddit    RedditConfig    `yaml:"reddit" mapstructure:"reddit"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	DeepDive  DeepDiveConfig  `yaml:"deepdive" mapstructure:"deepdive"`
	Locations LocationsConfig `yaml:"locations" mapstructure:"locations"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key               string `yaml:"key" mapstructure:"key"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	Model             string `yaml:"model" mapstructure:"model"`
	MaxTokens         int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	InsightsMaxTokens int64  `yaml:"insights_max_tokens" mapstructure:"insights_max_tokens"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ApifyConfig holds Apify actor settings. Review platforms that need a
// browser are routed through Apify only when Key is set.
type ApifyConfig struct {
	Key              string            `yaml:"key" mapstructure:"key"`
	BaseURL          string            `yaml:"base_url" mapstructure:"base_url"`
	MaxReviews       int               `yaml:"max_reviews" mapstructure:"max_reviews"`
	PollIntervalSecs int               `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	PollAttempts     int               `yaml:"poll_attempts" mapstructure:"poll_attempts"`
	Actors           map[string]string `yaml:"actors" mapstructure:"actors"`
}

// PollInterval returns the run poll interval.
func (c ApifyConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSecs) * time.Second
}

// RedditConfig configures the Reddit JSON scraper.
type RedditConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ScrapeConfig configures URL analysis.
type ScrapeConfig struct {
	MinContentChars int `yaml:"min_content_chars" mapstructure:"min_content_chars"`
	MaxTextChars    int `yaml:"max_text_chars" mapstructure:"max_text_chars"`
	BatchDelayMs    int `yaml:"batch_delay_ms" mapstructure:"batch_delay_ms"`
}

// BatchDelay returns the pause between URLs of a batch.
func (c ScrapeConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMs) * time.Millisecond
}

// DeepDiveConfig configures per-group deep dives.
type DeepDiveConfig struct {
	Concurrency  int `yaml:"concurrency" mapstructure:"concurrency"`
	IntervalMs   int `yaml:"interval_ms" mapstructure:"interval_ms"`
	MaxTextChars int `yaml:"max_text_chars" mapstructure:"max_text_chars"`
}

// Interval returns the minimum spacing between deep-dive calls.
func (c DeepDiveConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// LocationsConfig configures grouping and the dashboard view.
type LocationsConfig struct {
	PreviewLimit int         `yaml:"preview_limit" mapstructure:"preview_limit"`
	Noise        NoiseConfig `yaml:"noise" mapstructure:"noise"`
	RulesFile    string      `yaml:"rules_file" mapstructure:"rules_file"`
}

// NoiseConfig mirrors locations.NoiseFilter.
type NoiseConfig struct {
	MinIDDigits int      `yaml:"min_id_digits" mapstructure:"min_id_digits"`
	Substrings  []string `yaml:"substrings" mapstructure:"substrings"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. A .env file in the
// working directory is loaded first; variables already set win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.insights_max_tokens", 2000)
	v.SetDefault("firecrawl.key", "")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("apify.key", "")
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.max_reviews", 50)
	v.SetDefault("apify.poll_interval_secs", 5)
	v.SetDefault("apify.poll_attempts", 60)
	v.SetDefault("reddit.user_agent", "")
	v.SetDefault("reddit.timeout_secs", 20)
	v.SetDefault("scrape.min_content_chars", 100)
	v.SetDefault("scrape.max_text_chars", 8000)
	v.SetDefault("scrape.batch_delay_ms", 2000)
	v.SetDefault("deepdive.concurrency", 3)
	v.SetDefault("deepdive.interval_ms", 2000)
	v.SetDefault("deepdive.max_text_chars", 10000)
	v.SetDefault("locations.preview_limit", 5)
	v.SetDefault("locations.noise.min_id_digits", 5)
	v.SetDefault("locations.noise.substrings", []string{"corporate rollup"})
	v.SetDefault("locations.rules_file", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings needed by mode are present.
// Modes: "serve", "analyze", "insights", "store", "local".
func (c *Config) Validate(mode string) error {
	var errs []string

	needStore := func() {
		switch c.Store.Driver {
		case "postgres", "pgx":
			if c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required for postgres")
			}
		case "sqlite":
		default:
			errs = append(errs, "store.driver must be postgres or sqlite")
		}
	}
	needClaude := func() {
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	}

	switch mode {
	case "serve":
		needStore()
		needClaude()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
	case "analyze":
		needStore()
		needClaude()
		if c.Firecrawl.Key == "" && c.Apify.Key == "" {
			zap.L().Warn("config: no firecrawl or apify key, only reddit and local scraping available")
		}
	case "insights":
		needStore()
		needClaude()
	case "store":
		needStore()
	case "local":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.DeepDive.Concurrency < 1 || c.DeepDive.Concurrency > 20 {
		errs = append(errs, "deepdive.concurrency must be between 1 and 20")
	}
	if c.Scrape.MinContentChars < 0 {
		errs = append(errs, "scrape.min_content_chars must be >= 0")
	}
	if c.Locations.PreviewLimit < 0 {
		errs = append(errs, "locations.preview_limit must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
