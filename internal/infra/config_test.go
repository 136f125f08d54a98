package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("PORT", "")
	t.Setenv("COMFY_BASE_URL", "")
	t.Setenv("POLL_INTERVAL_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.ComfyBaseURL != "https://api.comfydeploy.com/api" {
		t.Fatalf("ComfyBaseURL = %q", cfg.ComfyBaseURL)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("PollInterval = %v", cfg.PollInterval)
	}
}

func TestLoadConfigRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing DATABASE_URL")
	}
}

func TestLoadConfigRequiresRedisURLForRedis(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing REDIS_URL")
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "carrier-pigeon")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoadConfigDoesNotRequireUpstreamCredentials(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("COMFY_API_KEY", "")
	t.Setenv("RESEND_API_KEY", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ComfyAPIKey != "" || cfg.ResendAPIKey != "" {
		t.Fatalf("credentials should stay empty")
	}
}
