package ratio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Epsilon replaces a zero denominator in growth and share calculations.
// The result is a very large finite percentage that callers must read as a
// degenerate-base signal rather than a real rate.
const Epsilon = 1e-9

// RawLineItem is one uploaded row before numeric coercion.
type RawLineItem struct {
	Label   string `json:"label"`
	Prior   string `json:"prior"`
	Current string `json:"current"`
}

// LineItem is a labeled row of the statement with both period values.
type LineItem struct {
	Label   string  `json:"label"`
	Prior   float64 `json:"prior"`
	Current float64 `json:"current"`
}

// Row is a line item augmented with the derived percentage columns.
type Row struct {
	LineItem
	GrowthPercent       float64 `json:"growth_percent"`
	PriorSharePercent   float64 `json:"prior_share_percent"`
	CurrentSharePercent float64 `json:"current_share_percent"`
}

// Labels lists the phrases recognized for each aggregate line item.
type Labels struct {
	TotalAssets          []string
	ShortTermAssets      []string
	ShortTermLiabilities []string
}

// DefaultLabels recognizes the English aggregate names and their Vietnamese
// balance-sheet equivalents.
func DefaultLabels() Labels {
	return Labels{
		TotalAssets:          []string{"TOTAL ASSETS", "TỔNG CỘNG TÀI SẢN"},
		ShortTermAssets:      []string{"SHORT-TERM ASSETS", "TÀI SẢN NGẮN HẠN"},
		ShortTermLiabilities: []string{"SHORT-TERM LIABILITIES", "NỢ NGẮN HẠN"},
	}
}

// DataShapeError reports that a required aggregate row is missing.
type DataShapeError struct {
	Aggregate string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("required line item %q not found", e.Aggregate)
}

// MissingLineItemError reports that liquidity inputs are absent.
type MissingLineItemError struct {
	Missing []string
}

func (e *MissingLineItemError) Error() string {
	return fmt.Sprintf("missing line items: %s", strings.Join(e.Missing, ", "))
}

// Coerce converts raw cell text to numbers. Unparseable, empty and
// non-finite values become 0.
func Coerce(raw []RawLineItem) []LineItem {
	items := make([]LineItem, len(raw))
	for i, r := range raw {
		items[i] = LineItem{
			Label:   r.Label,
			Prior:   parseNumber(r.Prior),
			Current: parseNumber(r.Current),
		}
	}
	return items
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FindFirst returns the first item whose label contains any of the phrases,
// compared case-insensitively. Later matches are ignored, so a table with
// duplicate aggregate labels silently resolves to the earliest row.
func FindFirst(items []LineItem, phrases []string) (LineItem, int, bool) {
	for i, item := range items {
		label := strings.ToLower(item.Label)
		for _, p := range phrases {
			if p != "" && strings.Contains(label, strings.ToLower(p)) {
				return item, i, true
			}
		}
	}
	return LineItem{}, -1, false
}

// ComputeRatios coerces the raw table and adds growth and asset-share
// percentages to every row. It fails with *DataShapeError when no row
// matches the total assets phrases.
func ComputeRatios(raw []RawLineItem, labels Labels) ([]Row, error) {
	items := Coerce(raw)

	total, _, ok := FindFirst(items, labels.TotalAssets)
	if !ok {
		return nil, &DataShapeError{Aggregate: firstOr(labels.TotalAssets, "TOTAL ASSETS")}
	}
	priorTotal := nonZero(total.Prior)
	currentTotal := nonZero(total.Current)

	rows := make([]Row, len(items))
	for i, item := range items {
		rows[i] = Row{
			LineItem:            item,
			GrowthPercent:       (item.Current - item.Prior) / nonZero(item.Prior) * 100,
			PriorSharePercent:   item.Prior / priorTotal * 100,
			CurrentSharePercent: item.Current / currentTotal * 100,
		}
	}
	return rows, nil
}

func nonZero(v float64) float64 {
	if v == 0 {
		return Epsilon
	}
	return v
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
