package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic/internal/dashboard/models"
	"clinic/pkg/platform/httputil"
)

type Service interface {
	Summary(ctx context.Context) (*models.Summary, error)
}

// Handler serves GET /dashboard.
type Handler struct {
	dashboard Service
	logger    *slog.Logger
}

func New(dashboard Service, logger *slog.Logger) *Handler {
	return &Handler{dashboard: dashboard, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/dashboard", h.handleSummary)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := h.dashboard.Summary(ctx)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to build dashboard summary")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}
