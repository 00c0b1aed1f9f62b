// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"storefront-pricing/internal/model"
)

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	ServiceID  string

	// Connection secrets
	Secrets Secrets

	RedisAddr    string
	KafkaBrokers []string // empty disables order events
	OrderTopic   string

	// Pricing
	BaseDeliveryFee        float64
	Currency               string
	CatalogRefreshInterval time.Duration
	TieBreakByID           bool

	// Notifications
	NotifyBrowserTLS     bool
	NotifyTLSFingerprint string

	// Storefront clients below these versions get 426. Keyed by app.
	MinClientVersions map[string]string

	CartTTL        time.Duration
	IdempotencyTTL time.Duration
}

// Secrets are loaded from Secret Manager as JSON in production.
// In development, loaded from individual env vars or CONFIG_FILE.
type Secrets struct {
	DatabaseURL      string `json:"database_url"`
	RedisPassword    string `json:"redis_password,omitempty"`
	NotifyWebhookURL string `json:"notify_webhook_url,omitempty"`
}

const (
	defaultOrderTopic      = "orders.placed"
	defaultRefreshInterval = time.Minute
	defaultCartTTL         = 7 * 24 * time.Hour
	defaultIdempotencyTTL  = 24 * time.Hour
)

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:                 envOrDefault("PORT", "8080"),
		Environment:          envOrDefault("ENVIRONMENT", "development"),
		LogLevel:             envOrDefault("LOG_LEVEL", "info"),
		GCPProject:           os.Getenv("GCP_PROJECT"),
		ServiceID:            os.Getenv("SERVICE_ID"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		KafkaBrokers:         splitList(os.Getenv("KAFKA_BROKERS")),
		OrderTopic:           envOrDefault("ORDER_TOPIC", defaultOrderTopic),
		Currency:             os.Getenv("CURRENCY"),
		NotifyTLSFingerprint: os.Getenv("NOTIFY_TLS_FINGERPRINT"),
	}

	// ServiceID required in all environments
	if cfg.ServiceID == "" {
		return nil, fmt.Errorf("SERVICE_ID environment variable required")
	}

	if err := cfg.loadSettingsFromEnv(); err != nil {
		return nil, err
	}

	// Load secrets based on environment
	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		cfg.loadSecretsFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading secrets: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSettingsFromEnv parses the typed settings.
func (c *Config) loadSettingsFromEnv() error {
	var errs []error
	var err error

	if c.BaseDeliveryFee, err = model.ParseAmount(os.Getenv("BASE_DELIVERY_FEE")); err != nil {
		errs = append(errs, fmt.Errorf("BASE_DELIVERY_FEE: %w", err))
	}
	if c.CatalogRefreshInterval, err = envDuration("CATALOG_REFRESH_INTERVAL", defaultRefreshInterval); err != nil {
		errs = append(errs, err)
	}
	if c.CartTTL, err = envDuration("CART_TTL", defaultCartTTL); err != nil {
		errs = append(errs, err)
	}
	if c.IdempotencyTTL, err = envDuration("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		errs = append(errs, err)
	}
	if c.TieBreakByID, err = envBool("PRICING_TIE_BREAK_BY_ID"); err != nil {
		errs = append(errs, err)
	}
	if c.NotifyBrowserTLS, err = envBool("NOTIFY_BROWSER_TLS"); err != nil {
		errs = append(errs, err)
	}
	if versions := os.Getenv("MIN_CLIENT_VERSIONS"); versions != "" {
		if err := json.Unmarshal([]byte(versions), &c.MinClientVersions); err != nil {
			errs = append(errs, fmt.Errorf("parsing MIN_CLIENT_VERSIONS JSON: %w", err))
		}
	}
	return errors.Join(errs...)
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Use a struct that matches the JSON structure
	var fileConfig struct {
		Port                   string            `json:"port"`
		Environment            string            `json:"environment"`
		LogLevel               string            `json:"log_level"`
		ServiceID              string            `json:"service_id"`
		RedisAddr              string            `json:"redis_addr"`
		KafkaBrokers           []string          `json:"kafka_brokers"`
		OrderTopic             string            `json:"order_topic"`
		BaseDeliveryFee        float64           `json:"base_delivery_fee"`
		Currency               string            `json:"currency"`
		CatalogRefreshInterval string            `json:"catalog_refresh_interval"`
		TieBreakByID           bool              `json:"pricing_tie_break_by_id"`
		NotifyBrowserTLS       bool              `json:"notify_browser_tls"`
		NotifyTLSFingerprint   string            `json:"notify_tls_fingerprint"`
		MinClientVersions      map[string]string `json:"min_client_versions"`
		CartTTL                string            `json:"cart_ttl"`
		IdempotencyTTL         string            `json:"idempotency_ttl"`
		Secrets                Secrets           `json:"secrets"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:                 withDefault(fileConfig.Port, "8080"),
		Environment:          withDefault(fileConfig.Environment, "development"),
		LogLevel:             withDefault(fileConfig.LogLevel, "info"),
		ServiceID:            fileConfig.ServiceID,
		Secrets:              fileConfig.Secrets,
		RedisAddr:            fileConfig.RedisAddr,
		KafkaBrokers:         fileConfig.KafkaBrokers,
		OrderTopic:           withDefault(fileConfig.OrderTopic, defaultOrderTopic),
		BaseDeliveryFee:      fileConfig.BaseDeliveryFee,
		Currency:             fileConfig.Currency,
		TieBreakByID:         fileConfig.TieBreakByID,
		NotifyBrowserTLS:     fileConfig.NotifyBrowserTLS,
		NotifyTLSFingerprint: fileConfig.NotifyTLSFingerprint,
		MinClientVersions:    fileConfig.MinClientVersions,
	}

	durations := []struct {
		name string
		raw  string
		def  time.Duration
		dst  *time.Duration
	}{
		{"catalog_refresh_interval", fileConfig.CatalogRefreshInterval, defaultRefreshInterval, &cfg.CatalogRefreshInterval},
		{"cart_ttl", fileConfig.CartTTL, defaultCartTTL, &cfg.CartTTL},
		{"idempotency_ttl", fileConfig.IdempotencyTTL, defaultIdempotencyTTL, &cfg.IdempotencyTTL},
	}
	for _, d := range durations {
		v, err := parseDuration(d.name, d.raw, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	if cfg.ServiceID == "" {
		return nil, fmt.Errorf("service_id is required")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches connection secrets from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{service_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.ServiceID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Secrets); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadSecretsFromEnv reads secrets from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadSecretsFromEnv() {
	c.Secrets = Secrets{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Secrets.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis_addr is required")
	}
	if len(c.KafkaBrokers) > 0 && c.OrderTopic == "" {
		return fmt.Errorf("order_topic is required when kafka brokers are set")
	}
	if c.CatalogRefreshInterval <= 0 {
		return fmt.Errorf("catalog_refresh_interval must be positive")
	}
	if c.CartTTL < 0 || c.IdempotencyTTL <= 0 {
		return fmt.Errorf("cart_ttl must not be negative and idempotency_ttl must be positive")
	}
	if c.BaseDeliveryFee < 0 {
		return fmt.Errorf("base_delivery_fee must not be negative")
	}
	if hook := c.Secrets.NotifyWebhookURL; hook != "" {
		u, err := url.Parse(hook)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid notify_webhook_url")
		}
	}
	return nil
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	return parseDuration(key, os.Getenv(key), defaultVal)
}

func parseDuration(name, raw string, defaultVal time.Duration) (time.Duration, error) {
	if raw == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return d, nil
}

func envBool(key string) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
