package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Protagonist888/schwab-earnings-batch/internal/cache"
	"github.com/Protagonist888/schwab-earnings-batch/internal/database"
	"github.com/Protagonist888/schwab-earnings-batch/internal/metrics"
	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

// MockSummaries implements SummaryReader
type MockSummaries struct {
	summaries map[string]*models.EarningsSummary
	err       error
}

func (m *MockSummaries) Get(ctx context.Context, symbol string) (*models.EarningsSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.summaries[symbol]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return s, nil
}

// MockRuns implements RunReader
type MockRuns struct {
	runs      []*models.BatchRun
	lastLimit int
}

func (m *MockRuns) GetLatestBatchRun() (*models.BatchRun, error) {
	if len(m.runs) == 0 {
		return nil, fmt.Errorf("latest batch run: %w", database.ErrNotFound)
	}
	return m.runs[0], nil
}

func (m *MockRuns) ListBatchRuns(limit int) ([]*models.BatchRun, error) {
	m.lastLimit = limit
	if limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

// MockRefresher implements RefreshPublisher
type MockRefresher struct {
	symbols []string
	err     error
}

func (m *MockRefresher) PublishRefreshRequest(ctx context.Context, symbol string) error {
	if m.err != nil {
		return m.err
	}
	m.symbols = append(m.symbols, symbol)
	return nil
}

func newTestServer(h *Handler, reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return SetupRoutes(h, nil)
	}
	return SetupRoutes(h, reg)
}

func doRequest(t *testing.T, srv http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	h := NewHandler(&MockSummaries{}, nil, nil, nil, zerolog.Nop())
	rec := doRequest(t, newTestServer(h, nil), http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestGetSummary(t *testing.T) {
	summaries := &MockSummaries{summaries: map[string]*models.EarningsSummary{
		"AAPL": {
			Symbol:             "AAPL",
			NextEarningsDate:   time.Date(2024, 7, 25, 0, 0, 0, 0, time.UTC),
			AverageMovePercent: 3.42,
			ComputedAt:         time.Date(2024, 6, 15, 2, 3, 0, 0, time.UTC),
		},
	}}
	srv := newTestServer(NewHandler(summaries, nil, nil, nil, zerolog.Nop()), nil)

	t.Run("cached symbol", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/earnings/aapl")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{
			"symbol":"AAPL",
			"next_earnings_date":"2024-07-25",
			"avg_move_percent":3.42,
			"computed_at":"2024-06-15T02:03:00Z"
		}`, rec.Body.String())
	})

	t.Run("missing symbol", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/earnings/ZZZZ")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("cache failure", func(t *testing.T) {
		broken := &MockSummaries{err: errors.New("redis: connection refused")}
		rec := doRequest(t, newTestServer(NewHandler(broken, nil, nil, nil, zerolog.Nop()), nil),
			http.MethodGet, "/api/v1/earnings/AAPL")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRefreshSummary(t *testing.T) {
	t.Run("queues refresh", func(t *testing.T) {
		refresher := &MockRefresher{}
		m := metrics.New(prometheus.NewRegistry())
		srv := newTestServer(NewHandler(&MockSummaries{}, nil, refresher, m, zerolog.Nop()), nil)

		rec := doRequest(t, srv, http.MethodPost, "/api/v1/earnings/msft/refresh")

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, []string{"MSFT"}, refresher.symbols)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshesRequested))
	})

	t.Run("disabled without kafka", func(t *testing.T) {
		srv := newTestServer(NewHandler(&MockSummaries{}, nil, nil, nil, zerolog.Nop()), nil)

		rec := doRequest(t, srv, http.MethodPost, "/api/v1/earnings/MSFT/refresh")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("publish failure", func(t *testing.T) {
		refresher := &MockRefresher{err: errors.New("leader not available")}
		srv := newTestServer(NewHandler(&MockSummaries{}, nil, refresher, nil, zerolog.Nop()), nil)

		rec := doRequest(t, srv, http.MethodPost, "/api/v1/earnings/MSFT/refresh")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		srv := newTestServer(NewHandler(&MockSummaries{}, nil, &MockRefresher{}, nil, zerolog.Nop()), nil)

		rec := doRequest(t, srv, http.MethodGet, "/api/v1/earnings/MSFT/refresh")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestRuns(t *testing.T) {
	finished := time.Date(2024, 6, 15, 2, 10, 0, 0, time.UTC)
	runs := &MockRuns{runs: []*models.BatchRun{
		{ID: "run-2", Status: models.RunStatusCompleted, Processed: 1801, Succeeded: 1700, Failed: 101, FinishedAt: &finished},
		{ID: "run-1", Status: models.RunStatusAborted, Processed: 900, Succeeded: 850, Failed: 50},
	}}
	srv := newTestServer(NewHandler(&MockSummaries{}, runs, nil, nil, zerolog.Nop()), nil)

	t.Run("latest", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/runs/latest")
		require.Equal(t, http.StatusOK, rec.Code)

		var run models.BatchRun
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
		assert.Equal(t, "run-2", run.ID)
		assert.Equal(t, 1801, run.Processed)
	})

	t.Run("list with limit", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/runs?limit=1")
		require.Equal(t, http.StatusOK, rec.Code)

		var got []models.BatchRun
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "run-2", got[0].ID)
	})

	t.Run("limit is capped", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/runs?limit=5000")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, maxRunsLimit, runs.lastLimit)
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/runs?limit=abc")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no runs recorded", func(t *testing.T) {
		empty := newTestServer(NewHandler(&MockSummaries{}, &MockRuns{}, nil, nil, zerolog.Nop()), nil)

		rec := doRequest(t, empty, http.MethodGet, "/api/v1/runs/latest")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = doRequest(t, empty, http.MethodGet, "/api/v1/runs")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("disabled without database", func(t *testing.T) {
		disabled := newTestServer(NewHandler(&MockSummaries{}, nil, nil, nil, zerolog.Nop()), nil)

		rec := doRequest(t, disabled, http.MethodGet, "/api/v1/runs")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.RecordSymbol(metrics.OutcomeSuccess)

	srv := newTestServer(NewHandler(&MockSummaries{}, nil, nil, m, zerolog.Nop()), reg)
	rec := doRequest(t, srv, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `earnings_batch_symbols_processed_total{outcome="success"} 1`))
}
