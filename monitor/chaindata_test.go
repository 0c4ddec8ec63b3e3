package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSnapshot(t *testing.T) {
	raw := loadTestFixture(t, "chaindata_fixture.json")

	var data ChaindataResponse
	require.NoError(t, json.Unmarshal(raw, &data))

	fetchedAt := time.Now()
	snap := buildSnapshot(&data, fetchedAt)

	assert.Equal(t, fetchedAt, snap.FetchedAt)
	assert.Equal(t, map[string]string{
		"1":          "Ethereum",
		"10":         "Optimism",
		"1399811149": "Solana",
	}, snap.Chains, "chain 999999 is outside the enumeration and gets no name")

	// hub assets first, then chains in sorted id order
	require.Len(t, snap.Assets, 6)
	assert.Equal(t, "USDC", snap.Assets[0].Symbol)
	assert.Equal(t, 6, snap.Assets[0].Decimals)
	assert.True(t, snap.Assets[0].EvmChain)
	assert.Equal(t, "WETH", snap.Assets[1].Symbol)

	// solana entry carries the mis-recorded decimals and the non-EVM flag
	last := snap.Assets[5]
	assert.Equal(t, testUsdcHash, last.TickerHash)
	assert.Equal(t, 9, last.Decimals)
	assert.False(t, last.EvmChain)
}

func TestSnapshotValid(t *testing.T) {
	now := time.Now()

	fresh := &Snapshot{FetchedAt: now.Add(-time.Minute)}
	assert.True(t, fresh.Valid(now))

	stale := &Snapshot{FetchedAt: now.Add(-SNAPSHOT_TTL)}
	assert.False(t, stale.Valid(now))

	empty := &Snapshot{}
	assert.False(t, empty.Valid(now))
}

func TestRegistryGetFetches(t *testing.T) {
	fixture := loadTestFixture(t, "chaindata_fixture.json")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(fixture)
	}))
	defer ts.Close()

	registry := NewChaindataRegistry(ts.URL, time.Second, testLogger())
	snap := registry.Get()

	assert.False(t, snap.FetchedAt.IsZero())
	assert.Equal(t, "Ethereum", snap.Chains["1"])
	assert.Len(t, snap.Assets, 6)

	// still valid -- the second Get serves the same snapshot
	assert.Same(t, snap, registry.Get())
}

func TestRegistryRefreshReplacesSnapshot(t *testing.T) {
	fixture := loadTestFixture(t, "chaindata_fixture.json")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(fixture)
	}))
	defer ts.Close()

	registry := NewChaindataRegistry(ts.URL, time.Second, testLogger())
	old := &Snapshot{
		Chains:    map[string]string{},
		FetchedAt: time.Now().Add(-2 * SNAPSHOT_TTL),
	}
	registry.snapshot.Store(old)
	oldFetchedAt := old.FetchedAt

	fresh := registry.Get()
	assert.NotSame(t, old, fresh)
	assert.True(t, fresh.FetchedAt.After(old.FetchedAt))
	// the replaced snapshot is untouched
	assert.Equal(t, oldFetchedAt, old.FetchedAt)
	assert.Empty(t, old.Chains)
}

func TestRegistryRefreshFailureKeepsSnapshot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	registry := NewChaindataRegistry(ts.URL, time.Second, testLogger())
	stale := &Snapshot{
		Chains:    map[string]string{"1": "Ethereum"},
		FetchedAt: time.Now().Add(-2 * SNAPSHOT_TTL),
	}
	registry.snapshot.Store(stale)

	// staleness is preferred over unavailability
	snap := registry.Get()
	assert.Same(t, stale, snap)
	assert.Equal(t, "Ethereum", snap.Chains["1"])
}

func TestRegistryMalformedResponseKeepsSnapshot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	registry := NewChaindataRegistry(ts.URL, time.Second, testLogger())
	snap := registry.Get()

	// never fetched successfully -- the initial empty snapshot is served
	assert.Empty(t, snap.Chains)
	assert.Empty(t, snap.Assets)
}
