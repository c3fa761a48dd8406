package main

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"fin-agents/internal/app"
	"fin-agents/internal/httputil"
	"fin-agents/internal/markdown"
	"fin-agents/internal/ratio"
	"fin-agents/internal/sheet"
	"fin-agents/internal/statement"
)

type rowResponse struct {
	Label               string   `json:"label"`
	Prior               *float64 `json:"prior"`
	Current             *float64 `json:"current"`
	GrowthPercent       *float64 `json:"growth_percent"`
	PriorSharePercent   *float64 `json:"prior_share_percent"`
	CurrentSharePercent *float64 `json:"current_share_percent"`
}

type ratioResponse struct {
	Value   *float64 `json:"value"`
	Display string   `json:"display"`
}

type liquidityResponse struct {
	Available bool          `json:"available"`
	Prior     ratioResponse `json:"prior"`
	Current   ratioResponse `json:"current"`
	Delta     *float64      `json:"delta,omitempty"`
}

type reportResponse struct {
	Filename             string            `json:"filename"`
	Rows                 []rowResponse     `json:"rows"`
	CurrentRatio         liquidityResponse `json:"current_ratio"`
	ShortTermAssetGrowth *float64          `json:"short_term_asset_growth,omitempty"`
	Warnings             []string          `json:"warnings,omitempty"`
	Summary              string            `json:"summary"`
	Cached               bool              `json:"cached"`
	CreatedAt            time.Time         `json:"created_at"`
}

type analysisResponse struct {
	Narrative     string `json:"narrative"`
	NarrativeHTML string `json:"narrative_html,omitempty"`
	Failed        bool   `json:"failed"`
	Category      string `json:"category,omitempty"`
}

func uploadStatementHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(deps, w, r)
		if !ok {
			return
		}
		log := deps.Log.With("session_id", sess.ID)

		if maxFileSize > 0 && r.ContentLength > maxFileSize {
			httputil.Fail(log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}
		if maxFileSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxFileSize)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if maxFileSize > 0 && header.Size > maxFileSize {
			httputil.Fail(log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}
		if !sheet.Supported(header.Filename) {
			httputil.Fail(log, w, sheet.ErrUnsupportedType.Error(), nil, http.StatusBadRequest)
			return
		}

		sess.Lock()
		defer sess.Unlock()

		report, err := deps.Statements.Load(r.Context(), header.Filename, file)
		if err != nil {
			// a rejected upload replaces the previous table
			sess.SetReport(nil)

			var malformed *sheet.MalformedError
			var shape *ratio.DataShapeError
			switch {
			case errors.As(err, &malformed):
				httputil.Fail(log, w, malformed.Error(), err, http.StatusBadRequest)
			case errors.As(err, &shape):
				httputil.Fail(log, w, shape.Error(), err, http.StatusUnprocessableEntity)
			default:
				httputil.Fail(log, w, "failed to process statement", err, http.StatusInternalServerError)
			}
			return
		}
		sess.SetReport(report)
		httputil.WriteJSON(w, http.StatusOK, toReportResponse(report))
	}
}

func getStatementHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(deps, w, r)
		if !ok {
			return
		}
		sess.Lock()
		report := sess.Report
		sess.Unlock()

		if report == nil {
			httputil.Fail(deps.Log.With("session_id", sess.ID), w, "no statement uploaded", nil, http.StatusNotFound)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toReportResponse(report))
	}
}

func analysisHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(deps, w, r)
		if !ok {
			return
		}
		log := deps.Log.With("session_id", sess.ID)

		sess.Lock()
		defer sess.Unlock()
		if sess.Report == nil {
			httputil.Fail(log, w, "no statement uploaded", nil, http.StatusConflict)
			return
		}

		res := deps.Narrative.Analyze(r.Context(), sess.Report.Summary)
		resp := analysisResponse{
			Narrative: res.Text,
			Failed:    res.Failed,
			Category:  string(res.Category),
		}
		if !res.Failed {
			html, err := markdown.ToHTML(res.Text)
			if err != nil {
				log.Warn("failed to render narrative", "err", err)
			}
			resp.NarrativeHTML = html
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

func toReportResponse(rep *statement.Report) reportResponse {
	rows := make([]rowResponse, len(rep.Rows))
	for i, row := range rep.Rows {
		rows[i] = rowResponse{
			Label:               row.Label,
			Prior:               finite(row.Prior),
			Current:             finite(row.Current),
			GrowthPercent:       finite(row.GrowthPercent),
			PriorSharePercent:   finite(row.PriorSharePercent),
			CurrentSharePercent: finite(row.CurrentSharePercent),
		}
	}

	liquidity := liquidityResponse{
		Available: rep.LiquidityAvailable,
		Prior:     ratioResponse{Display: ratio.Unavailable.String()},
		Current:   ratioResponse{Display: ratio.Unavailable.String()},
	}
	if rep.LiquidityAvailable {
		liquidity.Prior = toRatioResponse(rep.CurrentRatio.Prior)
		liquidity.Current = toRatioResponse(rep.CurrentRatio.Current)
		if d, ok := rep.CurrentRatio.Delta(); ok {
			liquidity.Delta = finite(d)
		}
	}

	var growth *float64
	if rep.ShortTermAssetGrowth != nil {
		growth = finite(*rep.ShortTermAssetGrowth)
	}

	return reportResponse{
		Filename:             rep.Filename,
		Rows:                 rows,
		CurrentRatio:         liquidity,
		ShortTermAssetGrowth: growth,
		Warnings:             rep.Warnings,
		Summary:              rep.Summary,
		Cached:               rep.Cached,
		CreatedAt:            rep.CreatedAt,
	}
}

func toRatioResponse(r ratio.Ratio) ratioResponse {
	resp := ratioResponse{Display: r.String()}
	if r.Available {
		resp.Value = finite(r.Value)
	}
	return resp
}

// finite returns nil for values JSON cannot carry. Epsilon-substituted
// denominators can overflow to infinity for very large amounts.
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
