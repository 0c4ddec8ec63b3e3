package monitor

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// display precision for normalized amounts
	AMOUNT_DISPLAY_DECIMALS = 6

	// DEFAULT_ASSET_DECIMALS is assumed when an asset cannot be resolved;
	// 18 is the overwhelmingly common base-unit scale.
	DEFAULT_ASSET_DECIMALS = 18

	FALLBACK_AMOUNT = "0.000000"
)

// ToDecimalString converts a non-negative base-unit integer string into a
// display amount with exactly six fractional digits, truncating toward zero.
// The arithmetic is arbitrary precision; amounts past the 53-bit float range
// keep their integer part intact. Malformed or absent input yields
// FALLBACK_AMOUNT -- callers keep the untouched input in amount_raw, so
// nothing is lost by zeroing the display value here.
func ToDecimalString(rawAmount string, decimals int) string {
	raw := strings.TrimSpace(rawAmount)
	if raw == "" {
		return FALLBACK_AMOUNT
	}

	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return FALLBACK_AMOUNT
	}

	return value.Shift(int32(-decimals)).
		Truncate(AMOUNT_DISPLAY_DECIMALS).
		StringFixed(AMOUNT_DISPLAY_DECIMALS)
}
