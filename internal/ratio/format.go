package ratio

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// FormatAmount renders a period value with thousands separators and no decimals.
func FormatAmount(v float64) string {
	r := math.Round(v)
	if math.Abs(r) >= math.MaxInt64 {
		return humanize.Commaf(r)
	}
	return humanize.Comma(int64(r))
}

// FormatPercent renders a percentage with two decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
