package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic/pkg/cpf"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/httputil"
)

type GenerateResponse struct {
	CPF    string `json:"cpf"`
	Digits string `json:"digits"`
}

type ValidateRequest struct {
	CPF string `json:"cpf"`
}

type ValidateResponse struct {
	Valid bool `json:"valid"`
}

// Handler serves the CPF utility routes under /cpf.
type Handler struct {
	source cpf.DigitSource
	logger *slog.Logger
}

type Option func(*Handler)

// WithDigitSource fixes the digits used by /cpf/generate. The source must be
// safe for concurrent use.
func WithDigitSource(src cpf.DigitSource) Option {
	return func(h *Handler) {
		h.source = src
	}
}

func New(logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/cpf", func(r chi.Router) {
		r.Get("/generate", h.handleGenerate)
		r.Post("/validate", h.handleValidate)
	})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := cpf.Generate(h.source)
	httputil.WriteJSON(w, http.StatusOK, GenerateResponse{
		CPF:    id.String(),
		Digits: id.Digits(),
	})
}

// handleValidate answers false for well-formed input with wrong check digits
// and 400 for input that is not a CPF at all.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ValidateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid cpf validate request")
		return
	}
	id, err := cpf.Parse(req.CPF)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error()), "malformed cpf")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ValidateResponse{Valid: id.Valid()})
}
