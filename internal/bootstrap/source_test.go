package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carbonchain/carbonchain-backend/config"
	mkt "github.com/carbonchain/carbonchain-backend/internal/marketplace/domain"
)

// flakyUpstream fails the first `failures` requests with 503.
func flakyUpstream(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"Kenya"}]`))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func marketplaceConfig(baseURL string, retries int) config.MarketplaceConfig {
	return config.MarketplaceConfig{
		BaseURL:        baseURL,
		RateLimit:      100,
		Burst:          10,
		Timeout:        time.Second,
		MaxRetries:     retries,
		BackoffInitial: time.Millisecond,
		BackoffMax:     2 * time.Millisecond,
	}
}

func TestClientOptions_CarriesRetrySettings(t *testing.T) {
	cfg := marketplaceConfig("http://upstream.test", 3)
	opts := clientOptions(cfg)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, time.Millisecond, opts.BackoffInitial)
	assert.Equal(t, 2*time.Millisecond, opts.BackoffMax)
	assert.Equal(t, time.Second, opts.Timeout)
}

func TestMarketplaceSource_RetriesUpstreamFailures(t *testing.T) {
	srv, hits := flakyUpstream(t, 2)
	source, err := marketplaceSource(marketplaceConfig(srv.URL, 2), zap.NewNop())
	require.NoError(t, err)

	countries, err := source.Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Kenya"}, countries)
	assert.Equal(t, int32(3), hits.Load())
}

func TestMarketplaceSource_NoRetries(t *testing.T) {
	srv, hits := flakyUpstream(t, 1)
	source, err := marketplaceSource(marketplaceConfig(srv.URL, 0), zap.NewNop())
	require.NoError(t, err)

	_, err = source.Countries(context.Background())
	assert.ErrorIs(t, err, mkt.ErrUpstream)
	assert.Equal(t, int32(1), hits.Load())
}
