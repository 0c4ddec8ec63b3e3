package monitor

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Snapshot lifetime. A lookup past this age triggers a refresh; on refresh
// failure the previous snapshot is served instead.
const SNAPSHOT_TTL = 5 * time.Minute

type ChaindataAsset struct {
	Symbol     string `json:"symbol"`
	TickerHash string `json:"tickerHash"`
	Decimals   int    `json:"decimals"`
	Address    string `json:"address,omitempty"`
}

type ChaindataDomain struct {
	Network string                    `json:"network,omitempty"`
	Assets  map[string]ChaindataAsset `json:"assets"`
}

type ChaindataResponse struct {
	Hub    ChaindataDomain            `json:"hub"`
	Chains map[string]ChaindataDomain `json:"chains"`
}

type AssetEntry struct {
	TickerHash string
	Symbol     string
	Decimals   int
	EvmChain   bool
}

// Snapshot is an immutable point-in-time copy of the chaindata registry.
// It is never mutated after construction; refreshes swap in a new one.
type Snapshot struct {
	Chains    map[string]string
	Assets    []AssetEntry
	FetchedAt time.Time
}

func (s *Snapshot) Valid(now time.Time) bool {
	return now.Sub(s.FetchedAt) < SNAPSHOT_TTL
}

type ChaindataRegistry struct {
	url      string
	client   *http.Client
	logger   *zerolog.Logger
	snapshot atomic.Pointer[Snapshot]
	group    singleflight.Group
}

func NewChaindataRegistry(url string, timeout time.Duration, logger *zerolog.Logger) *ChaindataRegistry {
	r := &ChaindataRegistry{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
	// empty snapshot until the first successful fetch; zero FetchedAt means
	// the first Get always attempts a refresh
	r.snapshot.Store(&Snapshot{Chains: map[string]string{}})
	return r
}

// Get returns the current snapshot, refreshing it when the TTL has lapsed.
// Concurrent expired callers share one in-flight fetch. Get never fails:
// a failed refresh serves the previous snapshot, stale or empty.
func (r *ChaindataRegistry) Get() *Snapshot {
	current := r.snapshot.Load()
	if current.Valid(time.Now()) {
		return current
	}

	fresh, err, _ := r.group.Do("chaindata", func() (interface{}, error) {
		snap, err := r.fetch()
		if err != nil {
			return nil, err
		}
		r.snapshot.Store(snap)
		return snap, nil
	})
	if err != nil {
		stale := r.snapshot.Load()
		r.logger.Error().Err(err).
			Time("snapshot_fetched_at", stale.FetchedAt).
			Msg("chaindata refresh failed -- serving previous snapshot")
		return stale
	}
	return fresh.(*Snapshot)
}

func (r *ChaindataRegistry) fetch() (*Snapshot, error) {
	req, err := http.NewRequest("GET", r.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if msg := statusMessage(resp.StatusCode); msg != "" {
			return nil, fmt.Errorf("chaindata request failed: %s", msg)
		}
		return nil, fmt.Errorf("chaindata request failed: got error code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var data ChaindataResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chaindata: %w", err)
	}

	snap := buildSnapshot(&data, time.Now())
	r.logger.Info().
		Int("chains", len(snap.Chains)).
		Int("assets", len(snap.Assets)).
		Msg("fetched chaindata registry")
	return snap, nil
}

// buildSnapshot flattens the registry document into one asset sequence:
// hub assets first, then per-chain assets. Keys are walked in sorted order
// so the sequence, and with it the majority tie-break, is deterministic.
func buildSnapshot(data *ChaindataResponse, fetchedAt time.Time) *Snapshot {
	snap := &Snapshot{
		Chains:    map[string]string{},
		Assets:    []AssetEntry{},
		FetchedAt: fetchedAt,
	}

	for id := range data.Chains {
		if name, ok := ChainIdToName[id]; ok {
			snap.Chains[id] = name
		}
	}

	for _, key := range sortedKeys(data.Hub.Assets) {
		asset := data.Hub.Assets[key]
		snap.Assets = append(snap.Assets, AssetEntry{
			TickerHash: asset.TickerHash,
			Symbol:     asset.Symbol,
			Decimals:   asset.Decimals,
			EvmChain:   true,
		})
	}

	for _, id := range sortedKeys(data.Chains) {
		chain := data.Chains[id]
		evm := !NonEvmChainIds[id]
		for _, key := range sortedKeys(chain.Assets) {
			asset := chain.Assets[key]
			snap.Assets = append(snap.Assets, AssetEntry{
				TickerHash: asset.TickerHash,
				Symbol:     asset.Symbol,
				Decimals:   asset.Decimals,
				EvmChain:   evm,
			})
		}
	}

	return snap
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
