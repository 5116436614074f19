// Package config loads application configuration from an optional YAML file
// and MARKETPULSE_* environment variables, and installs the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Scrape   ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	ETL      ETLConfig      `yaml:"etl" mapstructure:"etl"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ScrapeConfig configures the marketplace scraper.
type ScrapeConfig struct {
	Categories   []string `yaml:"categories" mapstructure:"categories"`
	BaseURL      string   `yaml:"base_url" mapstructure:"base_url"`
	SearchURL    string   `yaml:"search_url" mapstructure:"search_url"`
	UserAgent    string   `yaml:"user_agent" mapstructure:"user_agent"`
	MaxPages     int      `yaml:"max_pages" mapstructure:"max_pages"`
	MaxRetries   int      `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs  int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MinDelaySecs int      `yaml:"min_delay_secs" mapstructure:"min_delay_secs"`
	MaxDelaySecs int      `yaml:"max_delay_secs" mapstructure:"max_delay_secs"`
	Output       string   `yaml:"output" mapstructure:"output"`
}

// ETLConfig configures the transform stage.
type ETLConfig struct {
	Input  string `yaml:"input" mapstructure:"input"`
	Output string `yaml:"output" mapstructure:"output"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnalysisConfig configures the analysis stage.
type AnalysisConfig struct {
	Input     string `yaml:"input" mapstructure:"input"`
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the results server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml (optional) and the
// environment, applying defaults for everything else.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MARKETPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("scrape.categories", []string{
		"industrial machinery",
		"electronics components",
		"textile machinery",
		"packaging machines",
		"construction equipment",
	})
	v.SetDefault("scrape.base_url", "https://www.indiamart.com")
	v.SetDefault("scrape.search_url", "https://www.indiamart.com/search.mp")
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("scrape.max_pages", 3)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.min_delay_secs", 2)
	v.SetDefault("scrape.max_delay_secs", 5)
	v.SetDefault("scrape.output", "data/scraped_data.json")
	v.SetDefault("etl.input", "data/scraped_data.json")
	v.SetDefault("etl.output", "data/processed_data.csv")
	v.SetDefault("etl.format", "csv")
	v.SetDefault("analysis.input", "data/processed_data.csv")
	v.SetDefault("analysis.output_dir", "analysis_results")
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.path", "data/marketpulse.db")
	v.SetDefault("server.port", 8080)
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

// InitLogger builds the global zap logger from LogConfig.
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
