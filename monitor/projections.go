package monitor

import (
	"fmt"
	"strings"
	"time"
)

var tabularColumns = []string{"Intent ID", "Owner", "Amount", "Origin", "Destination", "Asset", "Created At"}

var simplifiedFields = []string{
	"intent_id",
	"owner",
	"amount",
	"origin",
	"destinations",
	"destination",
	"asset",
	"hub_invoice_enqueued_timestamp",
}

// TabularProjection renders the enriched batch as quoted rows in a fixed
// column order, one row per record, missing cells as "N/A". The Created At
// column comes from hub_invoice_enqueued_timestamp -- the time the invoice hit
// the hub queue -- not from the createdAt field that feeds open_time.
func TabularProjection(invoices []map[string]interface{}) string {
	var b strings.Builder
	writeRow(&b, tabularColumns)

	for _, inv := range invoices {
		writeRow(&b, []string{
			cellValue(inv, "intent_id"),
			cellValue(inv, "owner"),
			cellValue(inv, "amount"),
			cellValue(inv, "origin"),
			cellValue(inv, "destination"),
			cellValue(inv, "asset"),
			enqueuedTimestamp(inv),
		})
	}

	return b.String()
}

// SimplifiedProjection keeps a fixed field subset per record, plus a
// createdAt derived from hub_invoice_enqueued_timestamp.
func SimplifiedProjection(invoices []map[string]interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(invoices))
	for _, inv := range invoices {
		record := map[string]interface{}{}
		for _, field := range simplifiedFields {
			if v, ok := inv[field]; ok {
				record[field] = v
			}
		}
		if ts := enqueuedTimestamp(inv); ts != "N/A" {
			record["createdAt"] = ts
		}
		out = append(out, record)
	}
	return out
}

func writeRow(b *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("%q", cell))
	}
	b.WriteString("\n")
}

func cellValue(inv map[string]interface{}, key string) string {
	switch v := inv[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case nil:
	default:
		return fmt.Sprintf("%v", v)
	}
	return "N/A"
}

func enqueuedTimestamp(inv map[string]interface{}) string {
	millis, ok := parseTimestampMillis(inv["hub_invoice_enqueued_timestamp"])
	if !ok {
		return "N/A"
	}
	return time.UnixMilli(millis).UTC().Format("2006-01-02 15:04:05")
}
