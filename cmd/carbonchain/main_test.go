package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carbonchain/carbonchain-backend/config"
	"github.com/carbonchain/carbonchain-backend/internal/bootstrap"
)

func startAPI(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Marketplace: config.MarketplaceConfig{CatalogPath: "../../config/catalog.example.yaml", RateLimit: 5},
		Quote:       config.QuoteConfig{TTL: 15 * time.Minute, CostTolerance: 0.01},
		Escrow:      config.EscrowConfig{SweepSchedule: "0 */5 * * * *"},
		App:         config.AppConfig{Environment: "test", DevMode: true},
	}
	app, err := bootstrap.Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	srv := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		srv.Close()
		app.Close()
	})
	return srv.URL
}

func run(t *testing.T, api string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api", api, "--user", "alice"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestProjectsSearch(t *testing.T) {
	api := startAPI(t)

	out, err := run(t, api, "projects", "search", "--country", "Kenya")
	require.NoError(t, err)
	assert.Contains(t, out, "1 project(s)")
	assert.Contains(t, out, "VCS-191")

	out, err = run(t, api, "projects", "show", "GS-42")
	require.NoError(t, err)
	assert.Contains(t, out, "listing-42-a")

	_, err = run(t, api, "projects", "show", "nope")
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestQuoteAndPurchase(t *testing.T) {
	api := startAPI(t)

	out, err := run(t, api, "--json", "quote", "--project", "VCS-191", "--quantity", "5",
		"--first-name", "Ada", "--last-name", "Lovelace", "--message", "for the forests")
	require.NoError(t, err)

	var quote struct {
		QuoteID string `json:"quoteId"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &quote))
	require.NotEmpty(t, quote.QuoteID)

	out, err = run(t, api, "purchase", quote.QuoteID, "--message", "offset")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "Ada Lovelace")

	_, err = run(t, api, "purchase", quote.QuoteID)
	assert.Error(t, err)
}

func TestQuoteByUSD(t *testing.T) {
	api := startAPI(t)

	// VCS-191 lists 1500 t, the cheapest at $2.10
	out, err := run(t, api, "quote", "--project", "VCS-191", "--usd", "21",
		"--first-name", "Ada", "--last-name", "Lovelace", "--message", "m")
	require.NoError(t, err)
	assert.Contains(t, out, "10.00 t of Kasigau Corridor REDD Project for $21.00")

	out, err = run(t, api, "quote", "--project", "VCS-191", "--usd", "100000",
		"--first-name", "Ada", "--last-name", "Lovelace", "--message", "m")
	require.NoError(t, err)
	assert.Contains(t, out, "capped at the listed supply")

	_, err = run(t, api, "quote", "--project", "VCS-191", "--usd", "5", "--quantity", "2")
	assert.Error(t, err)
}

func TestEscrowCommands(t *testing.T) {
	api := startAPI(t)

	out, err := run(t, api, "escrow", "propose", "--beneficiary", "coop", "--verifier", "alice",
		"--initiative", "Mangroves", "--goal", "3", "--deadline", "48h")
	require.NoError(t, err)
	assert.Contains(t, out, "project #1 Mangroves (proposed)")

	out, err = run(t, api, "escrow", "fund", "1", "--amount", "1.25")
	require.NoError(t, err)
	assert.Contains(t, out, "raised 1.25 of 3 ETH")

	out, err = run(t, api, "escrow", "verify", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "released 1.25 ETH to coop")

	out, err = run(t, api, "escrow", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "verified")

	_, err = run(t, api, "escrow", "show", "x")
	assert.Error(t, err)
}
