package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"supplywatch/internal/alerts"
	"supplywatch/internal/cache"
	"supplywatch/internal/config"
	"supplywatch/internal/metrics"
	"supplywatch/internal/model"
)

type Server struct {
	cfg     *config.Manager
	metrics *metrics.Aggregator
	cache   cache.Cache
	alerts  *alerts.Store
	logger  *slog.Logger
	version string
}

type healthResponse struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Metrics   *model.MetricsSnapshot `json:"metrics,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

func Start(ctx context.Context, cfg *config.Manager, agg *metrics.Aggregator, cacheStore cache.Cache, alertsStore *alerts.Store, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := &Server{
		cfg:     cfg,
		metrics: agg,
		cache:   cacheStore,
		alerts:  alertsStore,
		logger:  logger,
		version: version,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.handleHealth)
	mux.HandleFunc("/metrics", server.handleMetrics)
	mux.HandleFunc("/alerts", server.handleAlerts)

	httpServer := &http.Server{Addr: current.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

// handleHealth reports processor health from the most recent cached
// metrics snapshot, never from the durable store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp := healthResponse{Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
	switch {
	case s.cache == nil:
		resp.Status = "unknown"
		resp.Message = "no metrics cache configured"
	default:
		snapshot, ok, err := s.cache.GetMetrics(r.Context())
		switch {
		case err != nil:
			resp.Status = "error"
			resp.Message = err.Error()
		case !ok:
			resp.Status = "unknown"
			resp.Message = "no metrics available"
		default:
			resp.Status = "healthy"
			resp.Metrics = &snapshot
		}
	}
	writeJSON(w, resp, s.logger)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.metrics == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.metrics.Snapshot(), s.logger)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.alerts == nil {
		writeJSON(w, []model.Alert{}, s.logger)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	writeJSON(w, s.alerts.List(limit), s.logger)
}

func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Warn("response encode failed", "err", err)
	}
}
