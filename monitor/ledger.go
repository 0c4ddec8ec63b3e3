package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// LedgerClient is a thin pass-through to the clearing ledger API. It does no
// interpretation beyond batch unwrapping; settlement math, fees and the rest
// stay server-side.
type LedgerClient struct {
	apiUrl string
	client *http.Client
	logger *zerolog.Logger
}

func NewLedgerClient(apiUrl string, timeout time.Duration, logger *zerolog.Logger) *LedgerClient {
	return &LedgerClient{
		apiUrl: apiUrl,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (c *LedgerClient) get(path string, params url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s%s", c.apiUrl, path)
	if len(params) > 0 {
		endpoint = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (c *LedgerClient) post(path string, payload []byte) ([]byte, error) {
	endpoint := fmt.Sprintf("%s%s", c.apiUrl, path)
	req, err := http.NewRequest("POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError(resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// GetInvoices fetches open invoices and normalizes whatever shape the API
// wraps them in into a flat record sequence.
func (c *LedgerClient) GetInvoices(limit int) ([]map[string]interface{}, error) {
	params := url.Values{}
	if limit > 0 {
		params.Add("limit", strconv.Itoa(limit))
	}

	body, err := c.get("/invoices", params)
	if err != nil {
		return nil, err
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invoices: %w", err)
	}

	return NormalizeBatch(payload), nil
}

func (c *LedgerClient) GetIntents(status string, limit int) ([]byte, error) {
	params := url.Values{}
	if status != "" {
		params.Add("statuses", status)
	}
	if limit > 0 {
		params.Add("limit", strconv.Itoa(limit))
	}
	return c.get("/intents", params)
}

func (c *LedgerClient) GetIntent(id string) ([]byte, error) {
	return c.get(fmt.Sprintf("/intents/%s", url.PathEscape(id)), nil)
}

func (c *LedgerClient) GetRoutes(origin string, destination string) ([]byte, error) {
	params := url.Values{}
	if origin != "" {
		params.Add("origin", origin)
	}
	if destination != "" {
		params.Add("destination", destination)
	}
	return c.get("/routes", params)
}

func (c *LedgerClient) CreateIntent(payload []byte) ([]byte, error) {
	return c.post("/intents", payload)
}

// InvoicesFromFile loads a local invoice dump, accepting the same batch
// shapes as the API.
func InvoicesFromFile(path string) ([]map[string]interface{}, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return NormalizeBatch(payload), nil
}

// keys the API is known to wrap record arrays under
var batchKeys = []string{"invoices", "data", "results"}

// NormalizeBatch flattens the upstream response variants -- a wrapped array
// under one of the conventional keys, a bare array, or a single record --
// into one sequence of records. Anything else normalizes to an empty batch.
func NormalizeBatch(payload interface{}) []map[string]interface{} {
	switch v := payload.(type) {
	case []interface{}:
		return toRecords(v)
	case map[string]interface{}:
		for _, key := range batchKeys {
			if inner, ok := v[key].([]interface{}); ok {
				return toRecords(inner)
			}
		}
		// a bare object is a one-record batch
		return []map[string]interface{}{v}
	}
	return []map[string]interface{}{}
}

func toRecords(items []interface{}) []map[string]interface{} {
	records := []map[string]interface{}{}
	for _, item := range items {
		if record, ok := item.(map[string]interface{}); ok {
			records = append(records, record)
		}
	}
	return records
}

func statusError(code int) error {
	if msg := statusMessage(code); msg != "" {
		return fmt.Errorf("ledger request failed: %s, code:%d", msg, code)
	}
	return fmt.Errorf("ledger request failed: got error code %d", code)
}

func statusMessage(httpCode int) string {
	switch httpCode {
	case http.StatusTooManyRequests:
		return "too many requests"
	case http.StatusServiceUnavailable:
		return "service unavailable"
	case http.StatusGatewayTimeout:
		return "gateway timeout"
	}
	return ""
}
