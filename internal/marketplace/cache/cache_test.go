package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestReferenceCache_List(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewReferenceCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := c.GetList(ctx, "countries")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetList(ctx, "countries", []string{"Kenya", "Peru"}))

	got, ok, err := c.GetList(ctx, "countries")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"Kenya", "Peru"}, got)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.GetList(ctx, "countries")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after the TTL")
}

func TestReferenceCache_CorruptEntryIsMiss(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewReferenceCache(client, time.Minute)

	require.NoError(t, mr.Set(referenceKeyPrefix+"categories", "{not json"))

	_, ok, err := c.GetList(context.Background(), "categories")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReferenceCache_JSON(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewReferenceCache(client, 0)
	ctx := context.Background()

	type doc struct{ Name string }
	require.NoError(t, c.SetJSON(ctx, "VCS-1", doc{Name: "Kasigau"}, time.Minute))

	var out doc
	ok, err := c.GetJSON(ctx, "VCS-1", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Kasigau", out.Name)
}
