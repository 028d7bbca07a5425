package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Default and bound for the daily breakdown range.
const defaultDailyDays = 7

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler handles monitoring stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	stats := h.statsProvider.GetStats()
	_ = json.NewEncoder(w).Encode(stats)
}

// CurrentStatsHandler handles derived-state snapshot requests.
type CurrentStatsHandler struct {
	deps Dependencies
}

// NewCurrentStatsHandler creates a new current-stats handler.
func NewCurrentStatsHandler(deps Dependencies) *CurrentStatsHandler {
	return &CurrentStatsHandler{deps: deps}
}

// HandleCurrentStats handles GET /api/v1/stats/current requests.
func (h *CurrentStatsHandler) HandleCurrentStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats_current"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats, err := h.deps.CurrentStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", NewKind(op, ErrInternal))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// DailyStatsHandler handles per-day breakdown requests.
type DailyStatsHandler struct {
	deps    Dependencies
	maxDays int
}

// NewDailyStatsHandler creates a new daily-stats handler bounded to maxDays.
func NewDailyStatsHandler(deps Dependencies, maxDays int) *DailyStatsHandler {
	if maxDays < 1 {
		maxDays = defaultDailyDays
	}
	return &DailyStatsHandler{deps: deps, maxDays: maxDays}
}

// HandleDailyStats handles GET /api/v1/stats/daily?days=N requests.
func (h *DailyStatsHandler) HandleDailyStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats_daily"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	days := defaultDailyDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > h.maxDays {
			writeError(w, http.StatusBadRequest, "bad_request",
				NewKind(op, ErrBadRequest))
			return
		}
		days = n
	}

	stats, err := h.deps.DailyStats(r.Context(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", NewKind(op, ErrInternal))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": stats})
}
