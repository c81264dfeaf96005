// Package config provides configuration structures for the miner
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Thumbnail resolution modes
const (
	ThumbnailModeNone     = "none"
	ThumbnailModeTemplate = "template"
	ThumbnailModeProbe    = "probe"
	ThumbnailModeDataAPI  = "dataapi"
)

// EnvPrefix is prepended to every environment variable, e.g. MINER_PAGINATION_CAP.
const EnvPrefix = "MINER"

// MinerConfig holds the complete configuration of a miner run
type MinerConfig struct {
	InnerTube  InnerTubeConfig  `mapstructure:"innertube" yaml:"innertube" json:"innertube"`
	Pagination PaginationConfig `mapstructure:"pagination" yaml:"pagination" json:"pagination"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment" yaml:"enrichment" json:"enrichment"`
	Log        LogConfig        `mapstructure:"log" yaml:"log" json:"log"`
}

// InnerTubeConfig holds transport settings
type InnerTubeConfig struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	ClientName     string        `mapstructure:"client_name" yaml:"client_name" json:"client_name"`
	ClientVersion  string        `mapstructure:"client_version" yaml:"client_version" json:"client_version"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent" json:"user_agent"`
	AcceptLanguage string        `mapstructure:"accept_language" yaml:"accept_language" json:"accept_language"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"` // Per request
}

// PaginationConfig bounds the continuation loop
type PaginationConfig struct {
	Cap         int `mapstructure:"cap" yaml:"cap" json:"cap"`                            // Max videos per request
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts" json:"max_attempts"` // Max continuation fetches
	MaxDepth    int `mapstructure:"max_depth" yaml:"max_depth" json:"max_depth"`          // Document search depth
}

// EnrichmentConfig controls thumbnail resolution
type EnrichmentConfig struct {
	Mode        string `mapstructure:"mode" yaml:"mode" json:"mode"` // "none", "template", "probe", "dataapi"
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency" json:"concurrency"`
	CacheSize   int    `mapstructure:"cache_size" yaml:"cache_size" json:"cache_size"` // 0 disables caching
	Template    string `mapstructure:"template" yaml:"template" json:"template"`
	APIKey      string `mapstructure:"api_key" yaml:"api_key" json:"-"` // Required for dataapi mode
}

// LogConfig controls zerolog output
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" json:"pretty"`
}

// DefaultMinerConfig returns a configuration with sensible defaults
func DefaultMinerConfig() *MinerConfig {
	return &MinerConfig{
		InnerTube: InnerTubeConfig{
			BaseURL:        "https://www.youtube.com",
			ClientName:     "WEB",
			ClientVersion:  "2.20250222.10.00",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			AcceptLanguage: "ja,en;q=0.9",
			Timeout:        30 * time.Second,
		},
		Pagination: PaginationConfig{
			Cap:         20,
			MaxAttempts: 3,
			MaxDepth:    50,
		},
		Enrichment: EnrichmentConfig{
			Mode:        ThumbnailModeTemplate,
			Concurrency: 8,
			CacheSize:   1000,
			Template:    "https://i.ytimg.com/vi/%s/hqdefault.jpg",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// SetDefaults registers every default with v so that environment variables
// and config files can override any key.
func SetDefaults(v *viper.Viper, c *MinerConfig) {
	v.SetDefault("innertube.base_url", c.InnerTube.BaseURL)
	v.SetDefault("innertube.client_name", c.InnerTube.ClientName)
	v.SetDefault("innertube.client_version", c.InnerTube.ClientVersion)
	v.SetDefault("innertube.user_agent", c.InnerTube.UserAgent)
	v.SetDefault("innertube.accept_language", c.InnerTube.AcceptLanguage)
	v.SetDefault("innertube.timeout", c.InnerTube.Timeout)

	v.SetDefault("pagination.cap", c.Pagination.Cap)
	v.SetDefault("pagination.max_attempts", c.Pagination.MaxAttempts)
	v.SetDefault("pagination.max_depth", c.Pagination.MaxDepth)

	v.SetDefault("enrichment.mode", c.Enrichment.Mode)
	v.SetDefault("enrichment.concurrency", c.Enrichment.Concurrency)
	v.SetDefault("enrichment.cache_size", c.Enrichment.CacheSize)
	v.SetDefault("enrichment.template", c.Enrichment.Template)
	v.SetDefault("enrichment.api_key", c.Enrichment.APIKey)

	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.pretty", c.Log.Pretty)
}

// Load layers defaults, the optional config file named by the "config" key,
// MINER_* environment variables and any flags already bound to v, then
// validates the result.
func Load(v *viper.Viper) (*MinerConfig, error) {
	cfg := DefaultMinerConfig()
	SetDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *MinerConfig) Validate() error {
	if c.InnerTube.BaseURL == "" {
		return fmt.Errorf("innertube.base_url cannot be empty")
	}

	if c.InnerTube.Timeout <= 0 {
		return fmt.Errorf("innertube.timeout must be positive")
	}

	if c.Pagination.Cap < 0 {
		return fmt.Errorf("pagination.cap cannot be negative")
	}

	if c.Pagination.MaxAttempts < 0 {
		return fmt.Errorf("pagination.max_attempts cannot be negative")
	}

	if c.Pagination.MaxDepth < 1 {
		return fmt.Errorf("pagination.max_depth must be at least 1")
	}

	validModes := map[string]bool{
		ThumbnailModeNone:     true,
		ThumbnailModeTemplate: true,
		ThumbnailModeProbe:    true,
		ThumbnailModeDataAPI:  true,
	}
	if !validModes[c.Enrichment.Mode] {
		return fmt.Errorf("invalid enrichment.mode '%s', must be one of: none, template, probe, dataapi", c.Enrichment.Mode)
	}

	if c.Enrichment.Mode == ThumbnailModeDataAPI && c.Enrichment.APIKey == "" {
		return fmt.Errorf("dataapi thumbnail mode requires enrichment.api_key to be specified")
	}

	if c.Enrichment.Mode == ThumbnailModeTemplate && strings.Count(c.Enrichment.Template, "%s") != 1 {
		return fmt.Errorf("enrichment.template must contain exactly one %%s")
	}

	if c.Enrichment.Concurrency < 1 {
		return fmt.Errorf("enrichment.concurrency must be at least 1")
	}

	if c.Enrichment.CacheSize < 0 {
		return fmt.Errorf("enrichment.cache_size cannot be negative")
	}

	return nil
}

// EnrichmentEnabled returns true unless thumbnails are left as mined
func (c *MinerConfig) EnrichmentEnabled() bool {
	return c.Enrichment.Mode != ThumbnailModeNone
}
