package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// SecurityConfig represents security configuration for the HTTP surface
type SecurityConfig struct {
	EnableRateLimit       bool
	RateLimitPerSecond    float64
	RateLimitBurst        int
	EnableCORS            bool
	AllowedOrigins        []string
	EnableSecurityHeaders bool
	EnableRequestID       bool
}

type Config struct {
	Port            int
	DataDir         string
	UserAgent       string
	CacheTTL        time.Duration
	FeedTimeout     time.Duration // feed document fetch
	ArticleTimeout  time.Duration // article page fetch
	ImageTimeout    time.Duration // single image fetch
	ArchiveDelay    time.Duration // pause between queued articles
	RetentionWindow time.Duration // age after which archives are purged
	RefreshInterval time.Duration // background refresh of all feeds, 0 disables
	EnableSwagger   bool
	Security        SecurityConfig
}

func Load() *Config {
	return &Config{
		Port:            getEnvAsInt("PORT", 8080),
		DataDir:         getEnv("DATA_DIR", "./data"),
		UserAgent:       getEnv("USER_AGENT", "Mozilla/5.0 (compatible; RSS Reader Bot)"),
		CacheTTL:        getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		FeedTimeout:     getEnvAsDuration("FEED_TIMEOUT", 10*time.Second),
		ArticleTimeout:  getEnvAsDuration("ARTICLE_TIMEOUT", 15*time.Second),
		ImageTimeout:    getEnvAsDuration("IMAGE_TIMEOUT", 10*time.Second),
		ArchiveDelay:    getEnvAsDuration("ARCHIVE_DELAY", time.Second),
		RetentionWindow: getEnvAsDuration("RETENTION_WINDOW", 7*24*time.Hour),
		RefreshInterval: getEnvAsDuration("REFRESH_INTERVAL", 30*time.Minute),
		EnableSwagger:   getEnvAsBool("ENABLE_SWAGGER", true),
		Security:        loadSecurityConfig(),
	}
}

func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableRateLimit:       getEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitPerSecond:    getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10.0),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 20),
		EnableCORS:            getEnvAsBool("ENABLE_CORS", true),
		AllowedOrigins:        getEnvAsStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		EnableSecurityHeaders: getEnvAsBool("ENABLE_SECURITY_HEADERS", true),
		EnableRequestID:       getEnvAsBool("ENABLE_REQUEST_ID", true),
	}
}

func getEnv(key string, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultVal
}
