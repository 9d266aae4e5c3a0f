package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PortNumber53/content-strategy-engine/internal/store"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string         `yaml:"port"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	AI       AIConfig       `yaml:"ai"`
	Sources  SourcesConfig  `yaml:"sources"`
	Cache    CacheConfig    `yaml:"cache"`
	Refresh  RefreshConfig  `yaml:"competitor_refresh"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	URL    string `yaml:"url"`
	Driver string `yaml:"driver"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type AIConfig struct {
	Provider       string `yaml:"provider"`
	GeminiAPIKey   string `yaml:"gemini_api_key"`
	Model          string `yaml:"model"`
	OpenAIBaseURL  string `yaml:"openai_base_url"`
	OpenAIAPIKey   string `yaml:"openai_api_key"`
	OpenAIModel    string `yaml:"openai_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type SourcesConfig struct {
	YouTubeAPIKey        string                     `yaml:"youtube_api_key"`
	TwitterBearerToken   string                     `yaml:"twitter_bearer_token"`
	GoogleTrendsEnabled  bool                       `yaml:"google_trends_enabled"`
	GoogleTrendsGeo      string                     `yaml:"google_trends_geo"`
	ClientTimeoutSeconds int                        `yaml:"http_client_timeout_seconds"`
	Limits               map[string]RateLimitConfig `yaml:"limits"`
}

// RateLimitConfig is the per-source limiter and daily quota. DailyRequestsMax 0 means unlimited.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"rps"`
	Burst             int     `yaml:"burst"`
	DailyRequestsMax  int64   `yaml:"daily_max"`
}

type CacheConfig struct {
	TTLSeconds     int `yaml:"ttl_seconds"`
	FastTTLSeconds int `yaml:"fast_ttl_seconds"`
}

type RefreshConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	StaleSeconds    int  `yaml:"stale_seconds"`
	Batch           int  `yaml:"batch"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func Defaults() Config {
	return Config{
		Port:     "18911",
		Database: DatabaseConfig{Driver: "postgres"},
		AI: AIConfig{
			Provider:       "gemini",
			Model:          "gemini-2.5-flash",
			TimeoutSeconds: 60,
		},
		Sources: SourcesConfig{
			GoogleTrendsGeo:      "US",
			ClientTimeoutSeconds: 20,
			Limits:               DefaultRateLimits(),
		},
		Cache:   CacheConfig{TTLSeconds: 21600, FastTTLSeconds: 900},
		Refresh: RefreshConfig{Enabled: true, IntervalSeconds: 21600, StaleSeconds: 86400, Batch: 20},
		Log:     LogConfig{Level: "info"},
	}
}

// DefaultRateLimits are conservative; override per source from YAML or env.
func DefaultRateLimits() map[string]RateLimitConfig {
	return map[string]RateLimitConfig{
		"youtube":       {RequestsPerSecond: 3, Burst: 3},
		"twitter":       {RequestsPerSecond: 1, Burst: 1},
		"reddit":        {RequestsPerSecond: 1, Burst: 2},
		"blog":          {RequestsPerSecond: 2, Burst: 4},
		"google-trends": {RequestsPerSecond: 0.5, Burst: 1},
		"ai-trends":     {RequestsPerSecond: 2, Burst: 2},
	}
}

// Load builds the config: defaults, then CONFIG_FILE (YAML) if set, then environment overrides.
func Load(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Defaults()
	if path := getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(&cfg, getenv)
	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	dialect, err := store.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return Config{}, fmt.Errorf("DATABASE_DRIVER: %w", err)
	}
	cfg.Database.Driver = string(dialect)
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	setString(&cfg.Port, getenv("PORT"))
	setString(&cfg.Database.URL, getenv("DATABASE_URL"))
	setString(&cfg.Database.Driver, getenv("DATABASE_DRIVER"))
	setString(&cfg.Auth.JWTSecret, getenv("JWT_SECRET"))

	setString(&cfg.AI.Provider, getenv("AI_PROVIDER"))
	setString(&cfg.AI.GeminiAPIKey, getenv("GEMINI_API_KEY"))
	setString(&cfg.AI.Model, getenv("AI_MODEL"))
	setString(&cfg.AI.OpenAIBaseURL, getenv("OPENAI_BASE_URL"))
	setString(&cfg.AI.OpenAIAPIKey, getenv("OPENAI_API_KEY"))
	setString(&cfg.AI.OpenAIModel, getenv("OPENAI_MODEL"))
	setPositiveInt(&cfg.AI.TimeoutSeconds, getenv("AI_TIMEOUT_SECONDS"))

	setString(&cfg.Sources.YouTubeAPIKey, getenv("YOUTUBE_API_KEY"))
	setString(&cfg.Sources.TwitterBearerToken, getenv("TWITTER_BEARER_TOKEN"))
	setBool(&cfg.Sources.GoogleTrendsEnabled, getenv("GOOGLE_TRENDS_ENABLED"))
	setString(&cfg.Sources.GoogleTrendsGeo, getenv("GOOGLE_TRENDS_GEO"))
	setPositiveInt(&cfg.Sources.ClientTimeoutSeconds, getenv("HTTP_CLIENT_TIMEOUT_SECONDS"))
	if cfg.Sources.Limits == nil {
		cfg.Sources.Limits = map[string]RateLimitConfig{}
	}
	for name, lim := range cfg.Sources.Limits {
		cfg.Sources.Limits[name] = RateLimitFromEnv(name, lim, getenv)
	}

	setPositiveInt(&cfg.Cache.TTLSeconds, getenv("CACHE_TTL_SECONDS"))
	setPositiveInt(&cfg.Cache.FastTTLSeconds, getenv("CACHE_FAST_TTL_SECONDS"))

	setBool(&cfg.Refresh.Enabled, getenv("COMPETITOR_REFRESH_ENABLED"))
	setPositiveInt(&cfg.Refresh.IntervalSeconds, getenv("COMPETITOR_REFRESH_INTERVAL_SECONDS"))
	setPositiveInt(&cfg.Refresh.StaleSeconds, getenv("COMPETITOR_REFRESH_STALE_SECONDS"))
	setPositiveInt(&cfg.Refresh.Batch, getenv("COMPETITOR_REFRESH_BATCH"))

	setString(&cfg.Log.Level, getenv("LOG_LEVEL"))
	setString(&cfg.Log.File, getenv("LOG_FILE"))
}

// RateLimitFromEnv applies SOURCE_<NAME>_RPS, SOURCE_<NAME>_BURST and SOURCE_<NAME>_DAILY_MAX, e.g.
// SOURCE_GOOGLE_TRENDS_RPS=0.2 for "google-trends".
func RateLimitFromEnv(source string, def RateLimitConfig, getenv func(string) string) RateLimitConfig {
	prefix := "SOURCE_" + EnvName(source) + "_"
	if v := getenv(prefix + "RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			def.RequestsPerSecond = f
		}
	}
	if v := getenv(prefix + "BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			def.Burst = n
		}
	}
	if v := getenv(prefix + "DAILY_MAX"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			def.DailyRequestsMax = n
		}
	}
	return def
}

// EnvName upper-cases a source name and turns dashes into underscores.
func EnvName(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
}

func (c Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

func (c Config) ClientTimeout() time.Duration {
	return time.Duration(c.Sources.ClientTimeoutSeconds) * time.Second
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c Config) FastCacheTTL() time.Duration {
	return time.Duration(c.Cache.FastTTLSeconds) * time.Second
}

func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh.IntervalSeconds) * time.Second
}

func (c Config) RefreshStaleAfter() time.Duration {
	return time.Duration(c.Refresh.StaleSeconds) * time.Second
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPositiveInt(dst *int, v string) {
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = n
	}
}

func setBool(dst *bool, v string) {
	if v == "" {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}
