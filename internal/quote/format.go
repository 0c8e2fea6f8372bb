package quote

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatMarketCap abbreviates a market capitalization for display:
// trillions/billions/millions with two decimals, smaller values with
// thousands separators, and "-" when the value is zero or absent.
func FormatMarketCap(v *float64) string {
	if v == nil || *v == 0 {
		return "-"
	}
	n := *v
	switch {
	case n >= 1e12:
		return fmt.Sprintf("%.2fT", n/1e12)
	case n >= 1e9:
		return fmt.Sprintf("%.2fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	default:
		return humanize.Comma(int64(n))
	}
}
