// Package config loads the ledger's runtime configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config represents the full application configuration surface.
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Storage     StorageConfig
	Ledger      LedgerConfig
	Payroll     PayrollConfig
	MobileMoney MobileMoneyConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port               string
	GinMode            string
	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration
	ShutdownTimeout    time.Duration
}

// LogConfig holds logger options.
type LogConfig struct {
	Level       string
	Development bool
}

// StorageConfig selects the store backend.
type StorageConfig struct {
	Driver            string
	DSN               string
	Path              string
	Database          string
	Table             string
	CompressThreshold int
}

// LedgerConfig holds business settings of the ledger.
type LedgerConfig struct {
	// WarehouseSiteID is the site id of the pressing warehouse
	WarehouseSiteID string
	// DeletionPolicy is "retain" or "retract" for a deleted cycle's movements
	DeletionPolicy string
	// RejectOverdraw fails postings that would make a balance negative
	RejectOverdraw bool
}

// PayrollRate is one statutory payroll deduction.
type PayrollRate struct {
	Label   string
	Percent decimal.Decimal
}

// PayrollConfig holds statutory deduction rates.
type PayrollConfig struct {
	Rates []PayrollRate
}

// MobileMoneyConfig holds the disbursement provider settings.
// An empty BaseURL disables mobile money.
type MobileMoneyConfig struct {
	BaseURL  string
	APIKey   string
	Currency string
	Timeout  time.Duration
}

// Enabled reports whether a provider is configured.
func (c MobileMoneyConfig) Enabled() bool { return c.BaseURL != "" }

// DefaultPayrollRates are the deductions used when PAYROLL_RATES is unset.
const DefaultPayrollRates = "NSSF:10,WCF:0.5,SDL:3.5"

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine; the environment may carry everything.
		_ = godotenv.Load()
	}

	rates, err := ParseRates(getenvWithDefault("PAYROLL_RATES", DefaultPayrollRates))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getenvWithDefault("APP_PORT", "8080"),
			GinMode:            getenvWithDefault("GIN_MODE", "release"),
			IdempotencyEnabled: getenvBool("IDEMPOTENCY_ENABLED", true),
			IdempotencyTTL:     getenvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
			ShutdownTimeout:    getenvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Log: LogConfig{
			Level:       getenvWithDefault("LOG_LEVEL", "info"),
			Development: getenvWithDefault("APP_ENV", "production") == "development",
		},
		Storage: StorageConfig{
			Driver:            getenvWithDefault("STORAGE_DRIVER", "sqlite"),
			DSN:               os.Getenv("STORAGE_DSN"),
			Path:              getenvWithDefault("STORAGE_PATH", "data/sealedger.db"),
			Database:          getenvWithDefault("STORAGE_DATABASE", "sealedger"),
			Table:             os.Getenv("STORAGE_TABLE"),
			CompressThreshold: getenvInt("STORAGE_COMPRESS_THRESHOLD", 0),
		},
		Ledger: LedgerConfig{
			WarehouseSiteID: getenvWithDefault("WAREHOUSE_SITE_ID", "pressing-warehouse"),
			DeletionPolicy:  getenvWithDefault("CYCLE_DELETION_POLICY", "retain"),
			RejectOverdraw:  getenvBool("REJECT_OVERDRAW", false),
		},
		Payroll: PayrollConfig{Rates: rates},
		MobileMoney: MobileMoneyConfig{
			BaseURL:  os.Getenv("MOBILE_MONEY_BASE_URL"),
			APIKey:   os.Getenv("MOBILE_MONEY_API_KEY"),
			Currency: getenvWithDefault("MOBILE_MONEY_CURRENCY", "TZS"),
			Timeout:  getenvDuration("MOBILE_MONEY_TIMEOUT", 15*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Driver {
	case "memory", "sqlite":
	case "postgres", "mongo":
		if c.Storage.DSN == "" {
			return fmt.Errorf("STORAGE_DSN must be provided for the %s driver", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER %q is not one of memory, sqlite, postgres, mongo", c.Storage.Driver)
	}

	if c.Ledger.WarehouseSiteID == "" {
		return errors.New("WAREHOUSE_SITE_ID must not be empty")
	}

	switch c.Ledger.DeletionPolicy {
	case "retain", "retract":
	default:
		return fmt.Errorf("CYCLE_DELETION_POLICY %q must be retain or retract", c.Ledger.DeletionPolicy)
	}

	if c.MobileMoney.Enabled() && c.MobileMoney.APIKey == "" {
		return errors.New("MOBILE_MONEY_API_KEY must be provided with MOBILE_MONEY_BASE_URL")
	}

	return nil
}

// ParseRates reads "LABEL:PERCENT" pairs separated by commas.
func ParseRates(s string) ([]PayrollRate, error) {
	var out []PayrollRate
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, pct, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("PAYROLL_RATES entry %q must be LABEL:PERCENT", part)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(pct))
		if err != nil {
			return nil, fmt.Errorf("PAYROLL_RATES entry %q: %w", part, err)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("PAYROLL_RATES entry %q is negative", part)
		}
		out = append(out, PayrollRate{Label: strings.TrimSpace(label), Percent: d})
	}
	return out, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
