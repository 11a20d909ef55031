package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8480 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8480)
	}
	if cfg.API.MaxUploadMB != 64 {
		t.Errorf("API.MaxUploadMB = %d, want 64", cfg.API.MaxUploadMB)
	}
	if !cfg.Billing.StrictSettlement {
		t.Error("Billing.StrictSettlement should default to true")
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should default to true")
	}
	if got := cfg.RequestTimeout(); got != 2*time.Minute {
		t.Errorf("RequestTimeout() = %v, want 2m", got)
	}
	if got := cfg.WebhookTolerance(); got != 5*time.Minute {
		t.Errorf("WebhookTolerance() = %v, want 5m", got)
	}
	if got := cfg.CertificateTTL(); got != 0 {
		t.Errorf("CertificateTTL() = %v, want 0 (no expiry)", got)
	}
	if got := cfg.MaxUploadBytes(); got != 64<<20 {
		t.Errorf("MaxUploadBytes() = %d, want %d", got, 64<<20)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.Port != 8480 {
		t.Errorf("API.Port = %d, want default 8480", cfg.API.Port)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
host = "0.0.0.0"
port = 9000
max_upload_mb = 128

[auth]
endpoint = "https://auth.example.com/v1/user"

[auth.static_tokens]
dev-token = "user-dev"

[billing]
webhook_secret = "whsec_test"
strict_settlement = false

[billing.price_credits]
price_small = 50
price_large = 250
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.Host != "0.0.0.0" || cfg.API.Port != 9000 {
		t.Errorf("api = %s:%d, want 0.0.0.0:9000", cfg.API.Host, cfg.API.Port)
	}
	if cfg.API.MaxUploadMB != 128 {
		t.Errorf("MaxUploadMB = %d, want 128", cfg.API.MaxUploadMB)
	}
	if cfg.Auth.StaticTokens["dev-token"] != "user-dev" {
		t.Errorf("static token mapping missing: %v", cfg.Auth.StaticTokens)
	}
	if cfg.Billing.StrictSettlement {
		t.Error("strict_settlement = true, want false from file")
	}
	if cfg.Billing.PriceCredits["price_large"] != 250 {
		t.Errorf("price_credits = %v", cfg.Billing.PriceCredits)
	}
	// Values not present in the file keep their defaults.
	if got := cfg.RequestTimeout(); got != 2*time.Minute {
		t.Errorf("RequestTimeout() = %v, want default 2m", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.API.Port = 0 }},
		{"bad upload cap", func(c *Config) { c.API.MaxUploadMB = 0 }},
		{"bad timeout", func(c *Config) { c.API.RequestTimeout = "soon" }},
		{"bad tolerance", func(c *Config) { c.Billing.WebhookTolerance = "whenever" }},
		{"non-positive price grant", func(c *Config) {
			c.Billing.PriceCredits = map[string]int64{"p": 0}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}
