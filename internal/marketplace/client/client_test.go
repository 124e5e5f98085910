package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carbonchain/carbonchain-backend/internal/marketplace/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, retries int) *CarbonmarkClient {
	return New(Options{
		BaseURL:        url,
		APIKey:         "secret",
		RateLimit:      1000,
		Burst:          100,
		MaxRetries:     retries,
		BackoffInitial: time.Millisecond,
		BackoffMax:     time.Millisecond,
	}, nil)
}

func TestCarbonmarkClient_Countries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/countries", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"id":"Brazil"},{"id":""},{"id":"Kenya"}]`))
	}))
	defer server.Close()

	countries, err := newTestClient(server.URL, 0).Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Brazil", "Kenya"}, countries)
}

func TestCarbonmarkClient_SearchParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/carbonProjects", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("limit"))
		assert.Equal(t, "Kenya", q.Get("country"))
		assert.Equal(t, "Forestry", q.Get("category"))
		assert.False(t, q.Has("name"))
		w.Write([]byte(`{"items":[{"key":"VCS-1","name":"Kasigau","prices":[{"sourceId":"s1","poolName":"BCT","purchasePrice":"4.5","supply":"10"}]}]}`))
	}))
	defer server.Close()

	res, err := newTestClient(server.URL, 0).Search(context.Background(), domain.SearchFilter{
		Country:     "Kenya",
		Methodology: "Forestry",
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 1, res.ItemsCount)
	assert.Equal(t, domain.Number(4.5), res.Items[0].Price)
	assert.Equal(t, domain.Number(10), res.Items[0].Stats.TotalSupply)
}

func TestCarbonmarkClient_ProjectNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/carbonProjects/VCS%2F9", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 2).Project(context.Background(), "VCS/9")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestCarbonmarkClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id":"Forestry"}]`))
	}))
	defer server.Close()

	cats, err := newTestClient(server.URL, 3).Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Forestry"}, cats)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCarbonmarkClient_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`bad`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 3).Countries(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCarbonmarkClient_Unreachable(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1", 0).Countries(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstream)
}
