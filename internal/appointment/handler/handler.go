package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic/internal/appointment/models"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/httputil"
)

// Service defines the appointment operations the handler exposes.
type Service interface {
	List(ctx context.Context) ([]models.View, error)
	Create(ctx context.Context, req *models.AppointmentRequest) (*models.View, error)
	Get(ctx context.Context, appointmentID id.AppointmentID) (*models.View, error)
	Update(ctx context.Context, appointmentID id.AppointmentID, req *models.AppointmentRequest) (*models.View, error)
	Delete(ctx context.Context, appointmentID id.AppointmentID) error
}

// Handler serves /appointments.
type Handler struct {
	appointments Service
	logger       *slog.Logger
}

func New(appointments Service, logger *slog.Logger) *Handler {
	return &Handler{appointments: appointments, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, err := h.appointments.List(ctx)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to list appointments")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"appointments": models.ToResponses(views),
		"total":        len(views),
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.AppointmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid create appointment request")
		return
	}
	v, err := h.appointments.Create(ctx, &req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to create appointment")
		return
	}
	w.Header().Set("Location", "/api/appointments/"+v.ID.String())
	httputil.WriteJSON(w, http.StatusCreated, models.ToResponse(*v))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appointmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	v, err := h.appointments.Get(ctx, appointmentID)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to get appointment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponse(*v))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appointmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req models.AppointmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid update appointment request")
		return
	}
	v, err := h.appointments.Update(ctx, appointmentID, &req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to update appointment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponse(*v))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appointmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.appointments.Delete(ctx, appointmentID); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to delete appointment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (id.AppointmentID, bool) {
	appointmentID, err := id.ParseAppointmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(r.Context(), h.logger, w, err, "invalid appointment id")
		return id.AppointmentID{}, false
	}
	return appointmentID, true
}
