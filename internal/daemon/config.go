// Package daemon holds the service configuration, loaded from TOML.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full daemon configuration.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Billing  BillingConfig  `toml:"billing"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	RequestTimeout string `toml:"request_timeout"`
	MaxUploadMB    int    `toml:"max_upload_mb"`
}

// DatabaseConfig locates the SQLite data directory.
type DatabaseConfig struct {
	Dir string `toml:"dir"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	// Endpoint is the identity provider's user-info URL. When empty,
	// only static tokens authenticate.
	Endpoint string `toml:"endpoint"`

	// StaticTokens maps fixed tokens to user ids, for development.
	StaticTokens map[string]string `toml:"static_tokens"`

	VerifyTimeout string `toml:"verify_timeout"`
}

// BillingConfig configures the payment webhook and settlement policy.
type BillingConfig struct {
	WebhookSecret string `toml:"webhook_secret"`

	// StrictSettlement controls what happens when a transform succeeds
	// but the credit settle fails: true discards the artifact and
	// reports an error; false delivers it flagged via the
	// X-Settlement header.
	StrictSettlement bool `toml:"strict_settlement"`

	// PriceCredits maps the payment provider's price id to the number
	// of credits a completed checkout grants.
	PriceCredits map[string]int64 `toml:"price_credits"`

	// WebhookTolerance bounds the accepted signature timestamp skew.
	WebhookTolerance string `toml:"webhook_tolerance"`

	// CertificateTTL bounds issued certificates; "0" means no expiry.
	CertificateTTL string `toml:"certificate_ttl"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8480,
			RequestTimeout: "2m",
			MaxUploadMB:    64,
		},
		Database: DatabaseConfig{Dir: ""},
		Auth: AuthConfig{
			VerifyTimeout: "10s",
		},
		Billing: BillingConfig{
			StrictSettlement: true,
			WebhookTolerance: "5m",
			CertificateTTL:   "0",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is
// not an error: defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.API.MaxUploadMB < 1 {
		return fmt.Errorf("api.max_upload_mb must be at least 1")
	}
	for _, d := range []struct{ name, value string }{
		{"api.request_timeout", c.API.RequestTimeout},
		{"auth.verify_timeout", c.Auth.VerifyTimeout},
		{"billing.webhook_tolerance", c.Billing.WebhookTolerance},
		{"billing.certificate_ttl", c.Billing.CertificateTTL},
	} {
		if _, err := parseDuration(d.value); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	for price, credits := range c.Billing.PriceCredits {
		if credits < 1 {
			return fmt.Errorf("billing.price_credits[%s] must be positive", price)
		}
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// RequestTimeout returns the parsed request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return durationOr(c.API.RequestTimeout, 2*time.Minute)
}

// VerifyTimeout returns the parsed auth verification timeout.
func (c *Config) VerifyTimeout() time.Duration {
	return durationOr(c.Auth.VerifyTimeout, 10*time.Second)
}

// WebhookTolerance returns the parsed webhook timestamp tolerance.
func (c *Config) WebhookTolerance() time.Duration {
	return durationOr(c.Billing.WebhookTolerance, 5*time.Minute)
}

// CertificateTTL returns the parsed certificate lifetime; 0 = no expiry.
func (c *Config) CertificateTTL() time.Duration {
	return durationOr(c.Billing.CertificateTTL, 0)
}

// MaxUploadBytes returns the multipart memory/size cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.API.MaxUploadMB) << 20
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := parseDuration(s)
	if err != nil {
		return fallback
	}
	if d == 0 && s == "" {
		return fallback
	}
	return d
}

// DataDir resolves the database directory, defaulting to ~/.inkwell.
func (c *Config) DataDir() (string, error) {
	if c.Database.Dir != "" {
		return c.Database.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".inkwell"), nil
}
