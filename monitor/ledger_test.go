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

func TestNormalizeBatchShapes(t *testing.T) {
	record := map[string]interface{}{"intent_id": "0xabc"}
	expected := []map[string]interface{}{record}

	wrapped := func(key string) interface{} {
		return map[string]interface{}{key: []interface{}{record}}
	}

	assert.Equal(t, expected, NormalizeBatch(wrapped("invoices")))
	assert.Equal(t, expected, NormalizeBatch(wrapped("data")))
	assert.Equal(t, expected, NormalizeBatch(wrapped("results")))
	assert.Equal(t, expected, NormalizeBatch([]interface{}{record}))
	// a single bare object is a one-record batch
	assert.Equal(t, expected, NormalizeBatch(record))
}

func TestNormalizeBatchSkipsNonRecords(t *testing.T) {
	payload := []interface{}{
		map[string]interface{}{"intent_id": "a"},
		"garbage",
		float64(42),
		map[string]interface{}{"intent_id": "b"},
	}

	records := NormalizeBatch(payload)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0]["intent_id"])
	assert.Equal(t, "b", records[1]["intent_id"])
}

func TestNormalizeBatchUnshapedPayloads(t *testing.T) {
	assert.Empty(t, NormalizeBatch(nil))
	assert.Empty(t, NormalizeBatch("garbage"))
	assert.Empty(t, NormalizeBatch(float64(42)))
	assert.Empty(t, NormalizeBatch([]interface{}{}))
}

func TestGetInvoices(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{
			"invoices": []interface{}{
				map[string]interface{}{"intent_id": "0xabc"},
			},
		})
	}))
	defer ts.Close()

	client := NewLedgerClient(ts.URL, time.Second, testLogger())
	invoices, err := client.GetInvoices(10)

	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "0xabc", invoices[0]["intent_id"])
	assert.Equal(t, "/invoices", gotPath)
}

func TestGetInvoicesRateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewLedgerClient(ts.URL, time.Second, testLogger())
	_, err := client.GetInvoices(10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many requests")
}

func TestGetIntentEscapesId(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewLedgerClient(ts.URL, time.Second, testLogger())
	_, err := client.GetIntent("0xabc/../etc")

	require.NoError(t, err)
	assert.Equal(t, "/intents/0xabc%2F..%2Fetc", gotPath)
}

func TestInvoicesFromFile(t *testing.T) {
	invoices, err := InvoicesFromFile(testFixturePath("invoices_fixture.json"))

	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "1", invoices[0]["origin"])
	assert.Equal(t, "8453", invoices[1]["origin"])
}

func TestInvoicesFromFileMissing(t *testing.T) {
	_, err := InvoicesFromFile(testFixturePath("does_not_exist.json"))
	assert.Error(t, err)
}
