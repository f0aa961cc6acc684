package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("Expected default data dir ./data, got %s", cfg.DataDir)
	}
	if cfg.ArchiveDelay != time.Second {
		t.Errorf("Expected default archive delay 1s, got %v", cfg.ArchiveDelay)
	}
	if cfg.RetentionWindow != 7*24*time.Hour {
		t.Errorf("Expected default retention window 168h, got %v", cfg.RetentionWindow)
	}
	if cfg.RefreshInterval != 30*time.Minute {
		t.Errorf("Expected default refresh interval 30m, got %v", cfg.RefreshInterval)
	}
	if !cfg.Security.EnableRateLimit {
		t.Error("Expected rate limiting enabled by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_DIR", "/tmp/rss-test")
	t.Setenv("ARCHIVE_DELAY", "250ms")
	t.Setenv("RETENTION_WINDOW", "48h")
	t.Setenv("REFRESH_INTERVAL", "0s")
	t.Setenv("ENABLE_RATE_LIMIT", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.DataDir != "/tmp/rss-test" {
		t.Errorf("Expected data dir override, got %s", cfg.DataDir)
	}
	if cfg.ArchiveDelay != 250*time.Millisecond {
		t.Errorf("Expected archive delay 250ms, got %v", cfg.ArchiveDelay)
	}
	if cfg.RetentionWindow != 48*time.Hour {
		t.Errorf("Expected retention window 48h, got %v", cfg.RetentionWindow)
	}
	if cfg.RefreshInterval != 0 {
		t.Errorf("Expected refresh disabled, got %v", cfg.RefreshInterval)
	}
	if cfg.Security.EnableRateLimit {
		t.Error("Expected rate limiting disabled")
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Security.AllowedOrigins) != 2 ||
		cfg.Security.AllowedOrigins[0] != want[0] ||
		cfg.Security.AllowedOrigins[1] != want[1] {
		t.Errorf("Expected trimmed origins %v, got %v", want, cfg.Security.AllowedOrigins)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("ARCHIVE_DELAY", "soon")
	t.Setenv("ENABLE_SWAGGER", "maybe")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected fallback port 8080, got %d", cfg.Port)
	}
	if cfg.ArchiveDelay != time.Second {
		t.Errorf("Expected fallback archive delay, got %v", cfg.ArchiveDelay)
	}
	if !cfg.EnableSwagger {
		t.Error("Expected fallback swagger setting")
	}
}
