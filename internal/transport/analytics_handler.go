package transport

import (
	"net/http"

	"shopkeeper/internal/middleware"
	"shopkeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AnalyticsHandler serves the dashboard and report data
type AnalyticsHandler struct {
	analytics service.AnalyticsService
	logger    *zap.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analytics service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		logger:    logger,
	}
}

// RegisterRoutes registers the analytics routes
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/analytics", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/charts", h.Charts)
	})
}

func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.DashboardStats(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *AnalyticsHandler) Charts(w http.ResponseWriter, r *http.Request) {
	charts, err := h.analytics.ChartsData(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, charts)
}
