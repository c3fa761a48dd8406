package statement

import (
	"strings"

	"fin-agents/internal/ratio"
)

// Summarize renders the report as markdown: the augmented table followed by
// the liquidity indicators.
func Summarize(r *Report) string {
	var b strings.Builder
	writeRow(&b, "Item", "Prior period", "Current period", "Growth (%)", "Prior share (%)", "Current share (%)")
	writeRow(&b, "---", "---:", "---:", "---:", "---:", "---:")
	for _, row := range r.Rows {
		writeRow(&b,
			row.Label,
			ratio.FormatAmount(row.Prior),
			ratio.FormatAmount(row.Current),
			ratio.FormatPercent(row.GrowthPercent),
			ratio.FormatPercent(row.PriorSharePercent),
			ratio.FormatPercent(row.CurrentSharePercent),
		)
	}

	growth := "N/A"
	if r.ShortTermAssetGrowth != nil {
		growth = ratio.FormatPercent(*r.ShortTermAssetGrowth)
	}
	prior, current := ratio.Unavailable.String(), ratio.Unavailable.String()
	if r.LiquidityAvailable {
		prior, current = r.CurrentRatio.Prior.String(), r.CurrentRatio.Current.String()
	}

	b.WriteString("\n")
	writeRow(&b, "Indicator", "Value")
	writeRow(&b, "---", "---:")
	writeRow(&b, "Short-term asset growth (%)", growth)
	writeRow(&b, "Current ratio (N-1)", prior)
	writeRow(&b, "Current ratio (N)", current)
	return b.String()
}

func writeRow(b *strings.Builder, cells ...string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(c, "|", `\|`))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}
