package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

type EnrichedBatch struct {
	Tabular    string                   `json:"tabular"`
	Simplified []map[string]interface{} `json:"simplified"`
}

// EnrichInvoices resolves and normalizes a raw invoice batch and returns its
// two derived projections. Records are enriched concurrently; the batch never
// shrinks -- every input record yields exactly one output record.
func (m *Monitor) EnrichInvoices(raws []map[string]interface{}, nowMillis int64) *EnrichedBatch {
	if len(raws) == 0 {
		m.logger.Warn().Msg("no invoices to enrich -- returning empty batch")
	}

	snap := m.registry.Get()
	enriched := EnrichBatch(snap, raws, nowMillis)

	return &EnrichedBatch{
		Tabular:    TabularProjection(enriched),
		Simplified: SimplifiedProjection(enriched),
	}
}

// EnrichBatch fans out one goroutine per record. Records only share the
// immutable snapshot, so no record ever waits on another; results land in
// their input slot, preserving order.
func EnrichBatch(snap *Snapshot, raws []map[string]interface{}, nowMillis int64) []map[string]interface{} {
	enriched := make([]map[string]interface{}, len(raws))

	var wg sync.WaitGroup
	for i, raw := range raws {
		wg.Add(1)
		go func(i int, raw map[string]interface{}) {
			defer wg.Done()
			enriched[i] = EnrichInvoice(snap, raw, nowMillis)
		}(i, raw)
	}
	wg.Wait()

	return enriched
}

// EnrichInvoice produces a new record carrying every original field plus the
// resolved and normalized ones. Each step degrades on its own to a fallback
// value; an unexpected panic anywhere degrades the whole record to a minimal
// variant with processing_error set. The raw record is never mutated.
func EnrichInvoice(snap *Snapshot, raw map[string]interface{}, nowMillis int64) (enriched map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			enriched = minimalInvoice(raw, fmt.Sprintf("%v", r))
		}
	}()

	out := make(map[string]interface{}, len(raw)+8)
	for k, v := range raw {
		out[k] = v
	}

	createdMillis, ok := parseTimestampMillis(raw["createdAt"])
	if !ok {
		// no creation time -- treat the invoice as opened just now
		createdMillis = nowMillis
	}
	openSeconds := (nowMillis - createdMillis) / 1000
	if openSeconds < 0 {
		openSeconds = 0
	}
	out["open_time_seconds"] = openSeconds
	out["open_time"] = (time.Duration(openSeconds) * time.Second).String()

	out["origin"] = FormatChain(snap, stringField(raw, "origin"))

	if ids, ok := stringSliceField(raw, "destinations"); ok {
		names := make([]string, 0, len(ids))
		formatted := make([]string, 0, len(ids))
		for _, id := range ids {
			names = append(names, ResolveChainName(snap, id))
			formatted = append(formatted, FormatChain(snap, id))
		}
		out["destination"] = strings.Join(names, ", ")
		out["destinations"] = formatted
	} else {
		out["destination"] = FormatChain(snap, stringField(raw, "destination"))
	}

	tickerHash := stringField(raw, "asset")
	if tickerHash == "unknown" {
		tickerHash = stringField(raw, "ticker_hash")
	}
	decimals := DEFAULT_ASSET_DECIMALS
	if res, ok := ResolveAsset(snap, tickerHash); ok {
		out["asset"] = FormatAsset(res.Symbol, tickerHash)
		decimals = res.Decimals
	} else {
		out["asset"] = ResolveAssetName(tickerHash)
	}

	rawAmount := amountField(raw["amount"])
	out["amount"] = ToDecimalString(rawAmount, decimals)
	out["amount_raw"] = rawAmount

	return out
}

// minimalInvoice is the per-record fault fallback: original fields preserved,
// enrichment fields set to placeholders, the failure recorded on the record
// itself so the batch keeps flowing.
func minimalInvoice(raw map[string]interface{}, cause string) map[string]interface{} {
	out := make(map[string]interface{}, len(raw)+8)
	for k, v := range raw {
		out[k] = v
	}

	out["origin"] = fmt.Sprintf("Unknown Chain (%s)", stringField(raw, "origin"))
	out["destination"] = fmt.Sprintf("Unknown Chain (%s)", stringField(raw, "destination"))
	out["asset"] = fmt.Sprintf("Unknown Token (%s)", stringField(raw, "asset"))
	out["amount"] = FALLBACK_AMOUNT
	out["amount_raw"] = amountField(raw["amount"])
	out["open_time_seconds"] = int64(0)
	out["open_time"] = "0s"
	out["processing_error"] = cause

	return out
}

// stringField reads an identifier-ish field, tolerating numeric json values.
// Absent or unusable values read as "unknown" so placeholders always embed
// something.
func stringField(raw map[string]interface{}, key string) string {
	switch v := raw[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "unknown"
}

func stringSliceField(raw map[string]interface{}, key string) ([]string, bool) {
	items, ok := raw[key].([]interface{})
	if !ok {
		return nil, false
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			values = append(values, v)
		case float64:
			values = append(values, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

func amountField(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	return ""
}

// parseTimestampMillis accepts epoch millis, epoch seconds and RFC3339,
// as numbers or strings. Upstream records are not consistent about which.
func parseTimestampMillis(v interface{}) (int64, bool) {
	switch value := v.(type) {
	case float64:
		return epochToMillis(int64(value)), true
	case string:
		if value == "" {
			return 0, false
		}
		if parsed, err := time.Parse(time.RFC3339, value); err == nil {
			return parsed.UnixMilli(), true
		}
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return epochToMillis(parsed), true
		}
	}
	return 0, false
}

// values below ~2286 AD in millis are taken as seconds
func epochToMillis(epoch int64) int64 {
	if epoch < 1e10 {
		return epoch * 1000
	}
	return epoch
}
