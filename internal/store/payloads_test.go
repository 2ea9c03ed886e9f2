package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourcePayload_StoreAndDedupe(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	payload := []byte("year,ppm\n2000,369.7\n2001,371.3\n")

	id, err := store.StoreSourcePayload(ctx, "co2_concentration", "https://example.org/co2.csv", payload)
	require.NoError(t, err)
	require.NotZero(t, id, "expected a new payload ID")

	dup, err := store.StoreSourcePayload(ctx, "co2_concentration", "https://example.org/co2.csv", payload)
	require.NoError(t, err)
	assert.Zero(t, dup, "duplicate payload should not be stored")

	got, err := store.SourcePayloadData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	p, err := store.SourcePayloadByHash(ctx, payloadHash(payload))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, "co2_concentration", p.Source)
	assert.NotZero(t, p.SizeBytes)

	missing, err := store.SourcePayloadByHash(ctx, payloadHash([]byte("other")))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSourcePayload_StatsAndCleanup(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	empty, err := store.SourcePayloadStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalCount)

	for _, p := range []struct{ source, body string }{
		{"temperature", "year,observed_c\n2000,0.4\n"},
		{"temperature", "year,observed_c\n2000,0.41\n"},
		{"sea_level", "year,gmsl\n2000,20\n"},
	} {
		_, err := store.StoreSourcePayload(ctx, p.source, "local.csv", []byte(p.body))
		require.NoError(t, err)
	}

	stats, err := store.SourcePayloadStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCount)
	assert.NotZero(t, stats.TotalSizeBytes)
	assert.Equal(t, 2, stats.CountBySource["temperature"])
	assert.Equal(t, 1, stats.CountBySource["sea_level"])

	// Everything is fresh, so a generous retention keeps it all.
	n, err := store.CleanupSourcePayloads(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.CleanupSourcePayloads(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
