package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic/internal/patient/models"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/httputil"
)

// Service defines the patient operations the handler exposes.
type Service interface {
	List(ctx context.Context) ([]*models.Patient, error)
	Create(ctx context.Context, req *models.PatientRequest) (*models.Patient, error)
	Get(ctx context.Context, patientID id.PatientID) (*models.Patient, error)
	Update(ctx context.Context, patientID id.PatientID, req *models.PatientRequest) (*models.Patient, error)
	Delete(ctx context.Context, patientID id.PatientID) error
}

// Handler serves /patients.
type Handler struct {
	patients Service
	logger   *slog.Logger
}

func New(patients Service, logger *slog.Logger) *Handler {
	return &Handler{patients: patients, logger: logger}
}

// Register mounts the patient routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/patients", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patients, err := h.patients.List(ctx)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to list patients")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"patients": models.ToResponses(patients),
		"total":    len(patients),
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.PatientRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid create patient request")
		return
	}
	p, err := h.patients.Create(ctx, &req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to create patient")
		return
	}
	w.Header().Set("Location", "/api/patients/"+p.ID.String())
	httputil.WriteJSON(w, http.StatusCreated, models.ToResponse(p))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientID, err := id.ParsePatientID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid patient id")
		return
	}
	p, err := h.patients.Get(ctx, patientID)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to get patient")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponse(p))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientID, err := id.ParsePatientID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid patient id")
		return
	}
	var req models.PatientRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid update patient request")
		return
	}
	p, err := h.patients.Update(ctx, patientID, &req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to update patient")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponse(p))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientID, err := id.ParsePatientID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid patient id")
		return
	}
	if err := h.patients.Delete(ctx, patientID); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to delete patient")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
