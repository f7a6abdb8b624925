package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Protagonist888/schwab-earnings-batch/internal/cache"
	"github.com/Protagonist888/schwab-earnings-batch/internal/database"
	"github.com/Protagonist888/schwab-earnings-batch/internal/metrics"
	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

const maxRunsLimit = 100

// SummaryReader reads cached earnings summaries
type SummaryReader interface {
	Get(ctx context.Context, symbol string) (*models.EarningsSummary, error)
}

// RunReader reads batch run history
type RunReader interface {
	GetLatestBatchRun() (*models.BatchRun, error)
	ListBatchRuns(limit int) ([]*models.BatchRun, error)
}

// RefreshPublisher queues a single-symbol refresh
type RefreshPublisher interface {
	PublishRefreshRequest(ctx context.Context, symbol string) error
}

// Handler holds dependencies for HTTP handlers. runs and refresher are
// optional; their endpoints answer 503 when unset.
type Handler struct {
	summaries SummaryReader
	runs      RunReader
	refresher RefreshPublisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewHandler creates a new Handler
func NewHandler(summaries SummaryReader, runs RunReader, refresher RefreshPublisher, m *metrics.Metrics, logger zerolog.Logger) *Handler {
	return &Handler{
		summaries: summaries,
		runs:      runs,
		refresher: refresher,
		metrics:   m,
		logger:    logger,
	}
}

// GetSummary handles GET /api/v1/earnings/{symbol}
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	symbol := normalizeSymbol(mux.Vars(r)["symbol"])

	summary, err := h.summaries.Get(r.Context(), symbol)
	if errors.Is(err, cache.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no earnings summary cached for "+symbol)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to read cached summary")
		respondError(w, http.StatusInternalServerError, "failed to read summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// RefreshSummary handles POST /api/v1/earnings/{symbol}/refresh
func (h *Handler) RefreshSummary(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		respondError(w, http.StatusServiceUnavailable, "refresh requests are disabled")
		return
	}

	symbol := normalizeSymbol(mux.Vars(r)["symbol"])
	if err := h.refresher.PublishRefreshRequest(r.Context(), symbol); err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to publish refresh request")
		respondError(w, http.StatusBadGateway, "failed to queue refresh")
		return
	}
	h.metrics.RecordRefreshRequest()

	respondJSON(w, http.StatusAccepted, map[string]string{"symbol": symbol, "status": "queued"})
}

// ListRuns handles GET /api/v1/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxRunsLimit {
		limit = maxRunsLimit
	}

	runs, err := h.runs.ListBatchRuns(limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list batch runs")
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*models.BatchRun{}
	}

	respondJSON(w, http.StatusOK, runs)
}

// GetLatestRun handles GET /api/v1/runs/latest
func (h *Handler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}

	run, err := h.runs.GetLatestBatchRun()
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no batch runs recorded")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get latest batch run")
		respondError(w, http.StatusInternalServerError, "failed to get latest run")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
