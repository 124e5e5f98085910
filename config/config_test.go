package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("QUOTE_TTL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("ESCROW_SWEEP_SCHEDULE", "")
	t.Setenv("CARBONMARK_MAX_RETRIES", "")
	t.Setenv("CARBONMARK_BACKOFF_INITIAL", "")
	t.Setenv("ESCROW_ETH_USD", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Quote.TTL)
	assert.Equal(t, 0.01, cfg.Quote.CostTolerance)
	assert.Equal(t, "", cfg.Database.PostgresURL())
	assert.Equal(t, "0 */5 * * * *", cfg.Escrow.SweepSchedule)
	assert.Equal(t, 2, cfg.Marketplace.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Marketplace.BackoffInitial)
	assert.Zero(t, cfg.Escrow.EthUSD)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("QUOTE_TTL", "2m")
	t.Setenv("DEV_MODE", "TRUE")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("CARBONMARK_RATE_LIMIT", "not-a-number")
	t.Setenv("CARBONMARK_MAX_RETRIES", "4")
	t.Setenv("CARBONMARK_BACKOFF_MAX", "5s")
	t.Setenv("ESCROW_ETH_USD", "2450.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Quote.TTL)
	assert.True(t, cfg.App.DevMode)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5.0, cfg.Marketplace.RateLimit)
	assert.Equal(t, 4, cfg.Marketplace.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Marketplace.BackoffMax)
	assert.Equal(t, 2450.5, cfg.Escrow.EthUSD)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:      ServerConfig{Port: "8000"},
		Marketplace: MarketplaceConfig{RateLimit: 1},
		Quote:       QuoteConfig{TTL: time.Minute},
	}
	assert.Error(t, cfg.Validate(), "missing marketplace source")

	cfg.Marketplace.CatalogPath = "catalog.yaml"
	assert.NoError(t, cfg.Validate())

	cfg.Escrow.EthUSD = -1
	assert.Error(t, cfg.Validate())
	cfg.Escrow.EthUSD = 0

	cfg.Quote.CostTolerance = -1
	assert.Error(t, cfg.Validate())
}

func TestPostgresURL(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "carbon", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=carbon sslmode=disable", d.PostgresURL())
}
