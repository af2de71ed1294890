// Package config loads application configuration from file and environment
// and initializes the global logger.
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
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Boundary BoundaryConfig `yaml:"boundary" mapstructure:"boundary"`
	Render   RenderConfig   `yaml:"render" mapstructure:"render"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// CacheConfig configures the local boundary cache.
type CacheConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BoundaryConfig configures the remote administrative boundary source.
type BoundaryConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	FTPHost     string  `yaml:"ftp_host" mapstructure:"ftp_host"`
	Year        int     `yaml:"year" mapstructure:"year"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// RenderConfig configures static plot output.
type RenderConfig struct {
	Width     int    `yaml:"width" mapstructure:"width"`
	Height    int    `yaml:"height" mapstructure:"height"`
	StyleFile string `yaml:"style_file" mapstructure:"style_file"`
}

// ReportConfig configures the report pipeline.
type ReportConfig struct {
	BufferMiles float64 `yaml:"buffer_miles" mapstructure:"buffer_miles"`
	BufferEPSG  int     `yaml:"buffer_epsg" mapstructure:"buffer_epsg"`
	Key         string  `yaml:"key" mapstructure:"key"`
	OutDir      string  `yaml:"out_dir" mapstructure:"out_dir"`
}

// ServerConfig configures the interactive map server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("cache.dir", "/tmp/geopipe")
	v.SetDefault("cache.database_url", "geopipe.db")
	v.SetDefault("boundary.base_url", "https://www2.census.gov/geo/tiger")
	v.SetDefault("boundary.ftp_host", "ftp2.census.gov:21")
	v.SetDefault("boundary.year", 2023)
	v.SetDefault("boundary.rate_per_sec", 2.0)
	v.SetDefault("boundary.concurrency", 3)
	v.SetDefault("render.width", 960)
	v.SetDefault("render.height", 720)
	v.SetDefault("report.buffer_miles", 0.5)
	v.SetDefault("report.buffer_epsg", 2248)
	v.SetDefault("report.key", "geoid")
	v.SetDefault("report.out_dir", "out")
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
