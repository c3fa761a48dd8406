package statement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"fin-agents/internal/cache"
	"fin-agents/internal/ratio"
	"fin-agents/internal/sheet"
)

// Report is the computed view of one uploaded statement. It is replaced by
// the next upload and never persisted.
type Report struct {
	Filename             string             `json:"filename"`
	Rows                 []ratio.Row        `json:"rows"`
	CurrentRatio         ratio.CurrentRatio `json:"-"`
	LiquidityAvailable   bool               `json:"liquidity_available"`
	ShortTermAssetGrowth *float64           `json:"short_term_asset_growth,omitempty"`
	Warnings             []string           `json:"warnings,omitempty"`
	Summary              string             `json:"summary"`
	Cached               bool               `json:"cached"`
	CreatedAt            time.Time          `json:"created_at"`
}

// Service turns raw tables into reports.
type Service struct {
	Cache  cache.Cache
	Labels ratio.Labels
	TTL    time.Duration
	Log    *slog.Logger
}

func NewService(c cache.Cache, labels ratio.Labels, ttl time.Duration, log *slog.Logger) *Service {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{Cache: c, Labels: labels, TTL: ttl, Log: log}
}

// Load reads an uploaded file and builds its report.
func (s *Service) Load(ctx context.Context, filename string, r io.Reader) (*Report, error) {
	raw, err := sheet.Read(filename, r)
	if err != nil {
		return nil, err
	}
	return s.Build(ctx, filename, raw)
}

// Build computes the augmented table, the current ratio and the summary
// handed to the narrative service. A table without a total-assets row
// yields a *ratio.DataShapeError and no report.
func (s *Service) Build(ctx context.Context, filename string, raw []ratio.RawLineItem) (*Report, error) {
	log := s.Log.With("filename", filename, "rows", len(raw))
	report := &Report{Filename: filename, CreatedAt: time.Now().UTC()}

	key := cache.GenerateCacheKey(s.Labels.TotalAssets, raw)
	rows, err := s.Cache.GetRatios(ctx, key)
	if err != nil {
		log.Warn("ratio cache lookup failed", "err", err)
		rows = nil
	}
	if rows != nil {
		report.Cached = true
	} else {
		rows, err = ratio.ComputeRatios(raw, s.Labels)
		if err != nil {
			return nil, err
		}
		if err := s.Cache.SetRatios(ctx, key, rows, s.TTL); err != nil {
			log.Warn("ratio cache store failed", "err", err)
		}
	}
	report.Rows = rows

	items := make([]ratio.LineItem, len(rows))
	for i, r := range rows {
		items[i] = r.LineItem
	}
	cr, err := ratio.ComputeCurrentRatio(items, s.Labels)
	var missing *ratio.MissingLineItemError
	switch {
	case err == nil:
		report.CurrentRatio = cr
		report.LiquidityAvailable = true
	case errors.As(err, &missing):
		report.Warnings = append(report.Warnings, missingWarning(missing))
	default:
		return nil, fmt.Errorf("current ratio: %w", err)
	}

	if _, idx, ok := ratio.FindFirst(items, s.Labels.ShortTermAssets); ok {
		g := rows[idx].GrowthPercent
		report.ShortTermAssetGrowth = &g
	}

	report.Summary = Summarize(report)
	log.Info("statement processed", "cached", report.Cached, "liquidity_available", report.LiquidityAvailable)
	return report, nil
}

func missingWarning(err *ratio.MissingLineItemError) string {
	return fmt.Sprintf("Missing line items %s; the current ratio cannot be computed.", strings.Join(err.Missing, ", "))
}
