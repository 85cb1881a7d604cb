// Package config loads service configuration from file and environment and
// initializes the global logger.
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
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	POI     POIConfig     `yaml:"poi" mapstructure:"poi"`
	Models  ModelsConfig  `yaml:"models" mapstructure:"models"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GeocodeConfig configures the ArcGIS geocoding client.
type GeocodeConfig struct {
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitRPS    float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	CacheTTLMinutes int     `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
	MaxCandidates   int     `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// POIConfig configures the spatial POI store and survey defaults.
type POIConfig struct {
	Driver         string  `yaml:"driver" mapstructure:"driver"`
	Path           string  `yaml:"path" mapstructure:"path"`
	DatabaseURL    string  `yaml:"database_url" mapstructure:"database_url"`
	DefaultRadiusM float64 `yaml:"default_radius_m" mapstructure:"default_radius_m"`
	MaxRadiusM     float64 `yaml:"max_radius_m" mapstructure:"max_radius_m"`
	TopNPerGroup   int     `yaml:"top_n_per_group" mapstructure:"top_n_per_group"`
}

// ModelsConfig configures the artifact registry.
type ModelsConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	WarmOnStart bool   `yaml:"warm_on_start" mapstructure:"warm_on_start"`
}

// Load reads configuration from config.yaml and SURVIVAL_* environment
// variables.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SURVIVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.rate_limit_rps", 10)
	v.SetDefault("geocode.cache_ttl_minutes", 15)
	v.SetDefault("geocode.max_candidates", 6)
	v.SetDefault("poi.driver", "sqlite")
	v.SetDefault("poi.path", "geo/osm_poi.sqlite3")
	v.SetDefault("poi.default_radius_m", 500)
	v.SetDefault("poi.max_radius_m", 5000)
	v.SetDefault("poi.top_n_per_group", 5)
	v.SetDefault("models.dir", "models")
	v.SetDefault("models.warm_on_start", false)

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
