package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	AppBaseURL        string
	StoreDriver       string
	DatabaseURL       string
	RedisURL          string
	ComfyAPIKey       string
	ComfyBaseURL      string
	ComfyDeploymentID string
	ResendAPIKey      string
	ResendBaseURL     string
	FromEmail         string
	AdminEmail        string
	CronSecret        string
	GeoIPDBPath       string
	AllowedOrigins    []string
	PollInterval      time.Duration
	PollMaxDuration   time.Duration
	SweepInterval     time.Duration
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	RateLimitPerMin   int
}

// Store driver names accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
	StoreDriverMemory   = "memory"
)

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Upstream credentials (generation service, email
// provider) are deliberately not required here: they are validated at call
// time so a misconfigured instance answers with a configuration error
// instead of refusing to boot.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		AppBaseURL:        os.Getenv("APP_URL"),
		StoreDriver:       getEnv("STORE_DRIVER", StoreDriverPostgres),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		ComfyAPIKey:       os.Getenv("COMFY_API_KEY"),
		ComfyBaseURL:      getEnv("COMFY_BASE_URL", "https://api.comfydeploy.com/api"),
		ComfyDeploymentID: getEnv("COMFY_DEPLOYMENT_ID", "a0fe4004-6878-487a-ae30-b05a60821ba1"),
		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		ResendBaseURL:     getEnv("RESEND_BASE_URL", "https://api.resend.com"),
		FromEmail:         getEnv("FROM_EMAIL", "School of Rock <rockstar@nube.media>"),
		AdminEmail:        getEnv("ADMIN_EMAIL", "fgalaz@mstudioprod.com"),
		CronSecret:        os.Getenv("CRON_SECRET"),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		AllowedOrigins:    getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		PollInterval:      time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 2)),
		PollMaxDuration:   time.Second * time.Duration(getEnvInt("POLL_MAX_SECONDS", 600)),
		SweepInterval:     time.Second * time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 60)),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreDriverRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STORE_DRIVER=redis")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
