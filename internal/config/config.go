// Package config handles configuration loading for Canada in Data.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"    yaml:"site"`
	Data    DataConfig    `mapstructure:"data"    yaml:"data"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Build   BuildConfig   `mapstructure:"build"   yaml:"build"`
	News    NewsConfig    `mapstructure:"news"    yaml:"news"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SiteConfig holds presentation settings shared by the server and the exporter.
type SiteConfig struct {
	Title    string `mapstructure:"title"     yaml:"title"`
	BasePath string `mapstructure:"base_path" yaml:"base_path"` // e.g. "/Project-CanViz/" for the static export
	URL      string `mapstructure:"url"       yaml:"url"`       // public origin, used in feed links
}

// DataConfig holds dataset source settings.
type DataConfig struct {
	Dir         string `mapstructure:"dir"         yaml:"dir"`
	BaseURL     string `mapstructure:"base_url"    yaml:"base_url"` // when set, datasets are fetched over HTTP instead of from Dir
	Watch       bool   `mapstructure:"watch"       yaml:"watch"`
	CacheTTL    int    `mapstructure:"cache_ttl"   yaml:"cache_ttl"` // seconds, 0 = until invalidated
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// BuildConfig holds static export settings.
type BuildConfig struct {
	OutDir string `mapstructure:"out_dir" yaml:"out_dir"`
	Clean  bool   `mapstructure:"clean"   yaml:"clean"`
}

// NewsConfig holds settings for the Statistics Canada "The Daily" headlines.
type NewsConfig struct {
	Enabled  bool   `mapstructure:"enabled"   yaml:"enabled"`
	FeedURL  string `mapstructure:"feed_url"  yaml:"feed_url"`
	MaxItems int    `mapstructure:"max_items" yaml:"max_items"`
	CacheTTL int    `mapstructure:"cache_ttl" yaml:"cache_ttl"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// DataCacheTTL returns the dataset cache TTL as a duration.
func (c DataConfig) DataCacheTTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// FeedCacheTTL returns the headline cache TTL as a duration.
func (c NewsConfig) FeedCacheTTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Addr returns the host:port listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.canviz/config.yaml (home directory)
//  3. /etc/canviz/config.yaml (system)
//
// Environment variables override config file values.
// Format: CANVIZ_<SECTION>_<KEY>, e.g., CANVIZ_DATA_DIR
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".canviz"))
	v.AddConfigPath("/etc/canviz")

	v.SetEnvPrefix("CANVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; defaults + env vars are enough to serve.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("CANVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	cfg.Site.BasePath = NormaliseBasePath(cfg.Site.BasePath)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("site.title", "Canada in Data")
	v.SetDefault("site.base_path", "/")
	v.SetDefault("site.url", "http://localhost:8080")

	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.base_url", "")
	v.SetDefault("data.watch", false)
	v.SetDefault("data.cache_ttl", 0)
	v.SetDefault("data.concurrency", 4)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	v.SetDefault("build.out_dir", "./dist")
	v.SetDefault("build.clean", true)

	v.SetDefault("news.enabled", false)
	v.SetDefault("news.feed_url", "https://www150.statcan.gc.ca/n1/dai-quo/rss/dai-quo-eng.xml")
	v.SetDefault("news.max_items", 5)
	v.SetDefault("news.cache_ttl", 1800) // 30 minutes

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv applies the conventional PORT variable used by hosting
// platforms. CANVIZ_API_PORT still wins when both are set.
func overrideFromEnv(cfg *Config) {
	if os.Getenv("CANVIZ_API_PORT") != "" {
		return
	}
	if p := os.Getenv("PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			cfg.API.Port = n
		}
	}
}

// NormaliseBasePath returns p with exactly one leading and one trailing
// slash. An empty path becomes "/".
func NormaliseBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return "/"
	}
	return "/" + p + "/"
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
