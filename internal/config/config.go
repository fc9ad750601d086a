// Package config loads the console settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported catalog stub drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	// DriverMemory keeps the catalog in a map and ignores the DSN.
	DriverMemory = "memory"
)

// Config holds every setting of the console.
type Config struct {
	AppPort string
	// CatalogAPIURL is the base URL of the catalog API. When empty the
	// console serves an embedded catalog and talks to it.
	CatalogAPIURL  string
	CatalogTimeout time.Duration
	StubDriver     string
	StubDSN        string
	StubSeed       bool
	// RabbitMQURL enables catalog change events when set.
	RabbitMQURL   string
	PriceCurrency string
}

// Embedded reports whether the console serves its own catalog API.
func (c Config) Embedded() bool {
	return c.CatalogAPIURL == ""
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("CATALOG_API_URL", "")
	v.SetDefault("CATALOG_TIMEOUT", "10s")
	v.SetDefault("CATALOG_STUB_DRIVER", DriverSQLite)
	v.SetDefault("CATALOG_STUB_DSN", "file::memory:?cache=shared")
	v.SetDefault("CATALOG_STUB_SEED", true)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("PRICE_CURRENCY", "PHP")
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from v and checks it.
func FromViper(v *viper.Viper) (Config, error) {
	timeout, err := time.ParseDuration(v.GetString("CATALOG_TIMEOUT"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CATALOG_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("CATALOG_TIMEOUT must be positive, got %s", timeout)
	}

	cfg := Config{
		AppPort:        v.GetString("APP_PORT"),
		CatalogAPIURL:  strings.TrimSpace(v.GetString("CATALOG_API_URL")),
		CatalogTimeout: timeout,
		StubDriver:     strings.ToLower(v.GetString("CATALOG_STUB_DRIVER")),
		StubDSN:        v.GetString("CATALOG_STUB_DSN"),
		StubSeed:       v.GetBool("CATALOG_STUB_SEED"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		PriceCurrency:  strings.ToUpper(v.GetString("PRICE_CURRENCY")),
	}

	switch cfg.StubDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported CATALOG_STUB_DRIVER %q", cfg.StubDriver)
	}
	return cfg, nil
}
