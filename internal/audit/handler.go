// Package audit exposes the recorded audit trail of patients and appointments.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	dErrors "clinic/pkg/domain-errors"
	audit "clinic/pkg/platform/audit"
	"clinic/pkg/platform/audit/publisher"
	"clinic/pkg/platform/httputil"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// Lister reads back recorded events.
type Lister interface {
	List(ctx context.Context, entityID string) ([]audit.Event, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

type Handler struct {
	events Lister
	logger *slog.Logger
}

func NewHandler(events Lister, logger *slog.Logger) *Handler {
	return &Handler{events: events, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.handleRecent)
	r.Get("/audit/{entity_id}", h.handleList)
}

type listResponse struct {
	EntityID string        `json:"entity_id"`
	Events   []audit.Event `json:"events"`
}

type recentResponse struct {
	Events []audit.Event `json:"events"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parsed, err := uuid.Parse(chi.URLParam(r, "entity_id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, dErrors.New(dErrors.CodeInvalidInput, "invalid entity id"), "invalid audit entity id")
		return
	}
	entityID := parsed.String()

	events, err := h.events.List(ctx, entityID)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{EntityID: entityID, Events: events})
}

// handleRecent lists the latest events across all entities. ?limit is
// optional and bounded by maxRecentLimit.
func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentLimit {
			httputil.Fail(ctx, h.logger, w,
				dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and "+strconv.Itoa(maxRecentLimit)),
				"invalid audit limit")
			return
		}
		limit = n
	}

	events, err := h.events.Recent(ctx, limit)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, recentResponse{Events: events})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, publisher.ErrNotQueryable) {
		err = dErrors.Wrap(err, dErrors.CodeUnavailable, "audit trail is streamed to an external sink")
	}
	httputil.Fail(ctx, h.logger, w, err, "failed to list audit events")
}
