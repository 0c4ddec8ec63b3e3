package monitor

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

const (
	DEFAULT_LEDGER_API_URL = "https://api.everclear.org"
	DEFAULT_CHAINDATA_URL  = "https://chaindata.everclear.org/everclear.json"

	DEFAULT_HTTP_TIMEOUT_SECONDS = 10
)

type LedgerEntry struct {
	ApiUrl         string `json:"api_url,omitempty" yaml:"api_url,omitempty" toml:"api_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"`
}

type ChaindataEntry struct {
	Url            string `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"`
}

type Config struct {
	Ledger    LedgerEntry    `json:"ledger,omitempty" yaml:"ledger,omitempty" toml:"ledger,omitempty"`
	Chaindata ChaindataEntry `json:"chaindata,omitempty" yaml:"chaindata,omitempty" toml:"chaindata,omitempty"`
}

func MustLoadConfig(path string) *Config {
	cfg := &Config{}
	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	if err = toml.Unmarshal(file, cfg); err != nil {
		panic(err)
	}
	return cfg
}

type Monitor struct {
	cfg      *Config
	logger   *zerolog.Logger
	registry *ChaindataRegistry
	ledger   *LedgerClient
}

func NewMonitor(cfg *Config, logger *zerolog.Logger) *Monitor {
	ledgerUrl := cfg.Ledger.ApiUrl
	if ledgerUrl == "" {
		ledgerUrl = DEFAULT_LEDGER_API_URL
	}
	chaindataUrl := cfg.Chaindata.Url
	if chaindataUrl == "" {
		chaindataUrl = DEFAULT_CHAINDATA_URL
	}

	return &Monitor{
		cfg:      cfg,
		logger:   logger,
		registry: NewChaindataRegistry(chaindataUrl, timeoutOrDefault(cfg.Chaindata.TimeoutSeconds), logger),
		ledger:   NewLedgerClient(ledgerUrl, timeoutOrDefault(cfg.Ledger.TimeoutSeconds), logger),
	}
}

// EnrichFromFile runs the enrichment pipeline over a local invoice dump
// instead of hitting the ledger API.
func (m *Monitor) EnrichFromFile(path string, nowMillis int64) (*EnrichedBatch, error) {
	invoices, err := InvoicesFromFile(path)
	if err != nil {
		return nil, err
	}
	m.logger.Info().Int("records", len(invoices)).Str("file", path).Msg("loaded invoices from file")
	return m.EnrichInvoices(invoices, nowMillis), nil
}

func timeoutOrDefault(seconds int) time.Duration {
	if seconds <= 0 {
		seconds = DEFAULT_HTTP_TIMEOUT_SECONDS
	}
	return time.Duration(seconds) * time.Second
}
