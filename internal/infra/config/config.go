package config

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Portal    PortalConfig    `mapstructure:"portal"`
	Checkout  CheckoutConfig  `mapstructure:"checkout"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type PortalConfig struct {
	URL string `mapstructure:"url"`
}

// CheckoutConfig holds the hosted checkout profile.
type CheckoutConfig struct {
	AccessKey        string `mapstructure:"access_key"`
	ProfileID        string `mapstructure:"profile_id"`
	SecretKey        string `mapstructure:"secret_key"`
	Endpoint         string `mapstructure:"endpoint"`
	TransactionType  string `mapstructure:"transaction_type"`
	ReferenceHashKey string `mapstructure:"reference_hash_key"`
}

// GatewayConfig is the gateway's REST API, used for payment searches.
type GatewayConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	MerchantID string        `mapstructure:"merchant_id"`
	KeyID      string        `mapstructure:"key_id"`
	SharedKey  string        `mapstructure:"shared_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SearchSize int           `mapstructure:"search_size"`
}

type LedgerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ReconcileConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Interval        time.Duration `mapstructure:"interval"`
	DaysAgo         int           `mapstructure:"days_ago"`
	ClientReference string        `mapstructure:"client_reference"`
	Concurrency     int           `mapstructure:"concurrency"`
	RatePerSecond   float64       `mapstructure:"rate_per_second"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "bridge.db",
		},
		Checkout: CheckoutConfig{
			TransactionType: "sale",
		},
		Gateway: GatewayConfig{
			Timeout:    10 * time.Second,
			SearchSize: 100,
		},
		Ledger: LedgerConfig{
			Timeout: 10 * time.Second,
		},
		Reconcile: ReconcileConfig{
			Interval:    time.Hour,
			DaysAgo:     1,
			Concurrency: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error

	required := map[string]string{
		"checkout.access_key":         c.Checkout.AccessKey,
		"checkout.profile_id":         c.Checkout.ProfileID,
		"checkout.secret_key":         c.Checkout.SecretKey,
		"checkout.endpoint":           c.Checkout.Endpoint,
		"checkout.reference_hash_key": c.Checkout.ReferenceHashKey,
		"portal.url":                  c.Portal.URL,
		"gateway.base_url":            c.Gateway.BaseURL,
		"ledger.base_url":             c.Ledger.BaseURL,
	}
	for key, value := range required {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	if c.Reconcile.Enabled && c.Reconcile.Interval <= 0 {
		errs = append(errs, errors.New("reconcile.interval must be positive"))
	}
	if c.Reconcile.DaysAgo < 0 {
		errs = append(errs, errors.New("reconcile.days_ago must not be negative"))
	}

	return errors.Join(errs...)
}
