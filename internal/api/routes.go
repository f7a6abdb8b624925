package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/earnings/{symbol}", handler.GetSummary).Methods("GET")
	api.HandleFunc("/earnings/{symbol}/refresh", handler.RefreshSummary).Methods("POST")
	api.HandleFunc("/runs", handler.ListRuns).Methods("GET")
	api.HandleFunc("/runs/latest", handler.GetLatestRun).Methods("GET")

	return r
}
