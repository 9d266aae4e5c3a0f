package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	if _, err := Load(envMap(nil)); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{"DATABASE_URL": "postgres://example"}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "18911" || cfg.Database.Driver != "postgres" || cfg.AI.Provider != "gemini" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CacheTTL() != 6*time.Hour || cfg.FastCacheTTL() != 15*time.Minute {
		t.Fatalf("unexpected cache ttls: %s %s", cfg.CacheTTL(), cfg.FastCacheTTL())
	}
	if !cfg.Refresh.Enabled || cfg.RefreshInterval() != 6*time.Hour {
		t.Fatalf("unexpected refresh defaults: %+v", cfg.Refresh)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{
		"DATABASE_URL":               "file:test.db",
		"DATABASE_DRIVER":            "sqlite",
		"PORT":                       "9000",
		"AI_TIMEOUT_SECONDS":         "5",
		"GOOGLE_TRENDS_ENABLED":      "true",
		"COMPETITOR_REFRESH_ENABLED": "false",
		"SOURCE_GOOGLE_TRENDS_RPS":   "0.25",
		"SOURCE_YOUTUBE_DAILY_MAX":   "100",
		"CACHE_TTL_SECONDS":          "-3",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.Database.Driver != "sqlite" || cfg.AITimeout() != 5*time.Second {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if !cfg.Sources.GoogleTrendsEnabled || cfg.Refresh.Enabled {
		t.Fatalf("bool overrides not applied: %+v", cfg)
	}
	if cfg.Sources.Limits["google-trends"].RequestsPerSecond != 0.25 {
		t.Fatalf("rps override not applied: %+v", cfg.Sources.Limits["google-trends"])
	}
	if cfg.Sources.Limits["youtube"].DailyRequestsMax != 100 {
		t.Fatalf("daily max override not applied: %+v", cfg.Sources.Limits["youtube"])
	}
	if cfg.Cache.TTLSeconds != 21600 {
		t.Fatalf("negative ttl should be ignored, got %d", cfg.Cache.TTLSeconds)
	}
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	_, err := Load(envMap(map[string]string{"DATABASE_URL": "x", "DATABASE_DRIVER": "mysql"}))
	if err == nil {
		t.Fatalf("expected driver error")
	}
}

func TestLoad_DriverAliasesMatchTheMigrateCLI(t *testing.T) {
	for in, want := range map[string]string{"PostgreSQL": "postgres", "sqlite3": "sqlite", " SQLite ": "sqlite"} {
		cfg, err := Load(envMap(map[string]string{"DATABASE_URL": "x", "DATABASE_DRIVER": in}))
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if cfg.Database.Driver != want {
			t.Fatalf("%q: expected %q, got %q", in, want, cfg.Database.Driver)
		}
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
port: "7000"
database:
  url: postgres://from-file
ai:
  provider: openai
  openai_model: gpt-4o-mini
sources:
  limits:
    youtube:
      rps: 9
      burst: 9
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(envMap(map[string]string{"CONFIG_FILE": path, "PORT": "7001"}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7001" {
		t.Fatalf("env should win over file, got %q", cfg.Port)
	}
	if cfg.Database.URL != "postgres://from-file" || cfg.AI.Provider != "openai" || cfg.AI.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Sources.Limits["youtube"].RequestsPerSecond != 9 {
		t.Fatalf("file limit not applied: %+v", cfg.Sources.Limits["youtube"])
	}
	if _, ok := cfg.Sources.Limits["reddit"]; !ok {
		t.Fatalf("default limits should survive a partial file")
	}
}

func TestEnvName(t *testing.T) {
	if EnvName("google-trends") != "GOOGLE_TRENDS" || EnvName("youtube") != "YOUTUBE" {
		t.Fatalf("EnvName mismatch")
	}
}
