package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "pressing-warehouse", cfg.Ledger.WarehouseSiteID)
	assert.Equal(t, "retain", cfg.Ledger.DeletionPolicy)
	assert.Equal(t, 15*time.Second, cfg.MobileMoney.Timeout)
	assert.False(t, cfg.MobileMoney.Enabled())
	require.Len(t, cfg.Payroll.Rates, 3)
	assert.Equal(t, "NSSF", cfg.Payroll.Rates[0].Label)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"STORAGE_DRIVER=postgres\n"+
			"STORAGE_DSN=postgres://localhost/ledger\n"+
			"CYCLE_DELETION_POLICY=retract\n"+
			"PAYROLL_RATES=PAYE:9.5\n",
	), 0o600))
	// godotenv never overrides variables that are already set.
	for _, key := range []string{"STORAGE_DRIVER", "STORAGE_DSN", "CYCLE_DELETION_POLICY", "PAYROLL_RATES"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "retract", cfg.Ledger.DeletionPolicy)
	require.Len(t, cfg.Payroll.Rates, 1)
	assert.Equal(t, "9.5", cfg.Payroll.Rates[0].Percent.String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"unknown driver", func(c *config.Config) { c.Storage.Driver = "redis" }},
		{"postgres without dsn", func(c *config.Config) { c.Storage.Driver = "postgres" }},
		{"bad deletion policy", func(c *config.Config) { c.Ledger.DeletionPolicy = "purge" }},
		{"mobile money without key", func(c *config.Config) { c.MobileMoney.BaseURL = "https://mm.example" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Server:  config.ServerConfig{Port: "8080"},
				Storage: config.StorageConfig{Driver: "memory"},
				Ledger:  config.LedgerConfig{WarehouseSiteID: "wh", DeletionPolicy: "retain"},
			}
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseRates(t *testing.T) {
	rates, err := config.ParseRates(" NSSF:10 , SDL:3.5,")
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "SDL", rates[1].Label)

	_, err = config.ParseRates("NSSF")
	assert.Error(t, err)
	_, err = config.ParseRates("NSSF:-1")
	assert.Error(t, err)
}
