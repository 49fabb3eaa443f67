package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"clinic/internal/patient/models"
	"clinic/internal/platform/metrics"
	"clinic/internal/platform/tracing"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	audit "clinic/pkg/platform/audit"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/platform/tx"
	"clinic/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, p *models.Patient) error
	Update(ctx context.Context, p *models.Patient) error
	FindByID(ctx context.Context, patientID id.PatientID) (*models.Patient, error)
	FindByCPF(ctx context.Context, digits string) (*models.Patient, error)
	List(ctx context.Context) ([]*models.Patient, error)
	Delete(ctx context.Context, patientID id.PatientID) error
	Count(ctx context.Context) (int, error)
	NamesByIDs(ctx context.Context, ids []id.PatientID) (map[id.PatientID]string, error)
}

// AppointmentRemover deletes a patient's appointments as part of the
// patient delete cascade.
type AppointmentRemover interface {
	DeleteByPatient(ctx context.Context, patientID id.PatientID) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages patient records.
type Service struct {
	store          Store
	appointments   AppointmentRemover
	txRunner       tx.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	hasher         audit.Hasher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithIdentifierHasher keys the CPF digest carried on audit events.
func WithIdentifierHasher(h audit.Hasher) Option {
	return func(s *Service) {
		s.hasher = h
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAppointmentRemover(r AppointmentRemover) Option {
	return func(s *Service) {
		s.appointments = r
	}
}

// WithTxRunner runs the delete cascade in one transaction.
func WithTxRunner(r tx.Runner) Option {
	return func(s *Service) {
		s.txRunner = r
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		txRunner: tx.NoopRunner{},
		logger:   slog.New(slog.DiscardHandler),
		tracer:   tracing.Tracer("clinic/patient"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all patients ordered by name.
func (s *Service) List(ctx context.Context) (_ []*models.Patient, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "patient.List")
	defer func() { end(err) }()

	patients, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list patients")
	}
	return patients, nil
}

func (s *Service) Create(ctx context.Context, req *models.PatientRequest) (_ *models.Patient, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "patient.Create")
	defer func() { end(err) }()

	now := requestcontext.Now(ctx)
	req.Normalize()
	fields, err := req.Validate(now)
	if err != nil {
		return nil, err
	}

	p, err := models.NewPatient(id.NewPatientID(), fields, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.ensureCPFAvailable(ctx, p.CPF.Digits(), p.ID); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "a patient with this CPF already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create patient")
	}

	s.emitAudit(ctx, audit.EventPatientCreated, p)
	s.metrics.IncrementCreated(audit.EntityPatient)
	return p, nil
}

func (s *Service) Get(ctx context.Context, patientID id.PatientID) (_ *models.Patient, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "patient.Get", attribute.String("patient_id", patientID.String()))
	defer func() { end(err) }()

	return s.find(ctx, patientID)
}

// Update replaces the patient's fields. An omitted birth date keeps the
// stored one.
func (s *Service) Update(ctx context.Context, patientID id.PatientID, req *models.PatientRequest) (_ *models.Patient, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "patient.Update", attribute.String("patient_id", patientID.String()))
	defer func() { end(err) }()

	p, err := s.find(ctx, patientID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	req.Normalize()
	fields, err := req.Validate(now)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCPFAvailable(ctx, fields.CPF.Digits(), p.ID); err != nil {
		return nil, err
	}
	p.Apply(fields, now)

	if err := s.store.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeConflict, "a patient with this CPF already exists")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "patient not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update patient")
	}

	s.emitAudit(ctx, audit.EventPatientUpdated, p)
	s.metrics.IncrementUpdated(audit.EntityPatient)
	return p, nil
}

// ensureCPFAvailable rejects digits already held by a patient other than
// self. The store's unique constraint still covers concurrent writers.
func (s *Service) ensureCPFAvailable(ctx context.Context, digits string, self id.PatientID) error {
	holder, err := s.store.FindByCPF(ctx, digits)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check CPF")
	case holder.ID == self:
		return nil
	}
	return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("CPF already registered to patient %s", holder.Name))
}

// Delete removes the patient and all of their appointments.
func (s *Service) Delete(ctx context.Context, patientID id.PatientID) (err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "patient.Delete", attribute.String("patient_id", patientID.String()))
	defer func() { end(err) }()

	p, err := s.find(ctx, patientID)
	if err != nil {
		return err
	}

	removed := 0
	err = s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		if s.appointments != nil {
			n, err := s.appointments.DeleteByPatient(ctx, patientID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete patient appointments")
			}
			removed = n
		}
		if err := s.store.Delete(ctx, patientID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "patient not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete patient")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "patient deleted",
		"patient_id", patientID.String(),
		"appointments_removed", removed,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitAudit(ctx, audit.EventPatientDeleted, p)
	s.metrics.IncrementDeleted(audit.EntityPatient, 1)
	s.metrics.IncrementDeleted(audit.EntityAppointment, removed)
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count patients")
	}
	return n, nil
}

// Names resolves patient names for appointment listings. Unknown IDs are
// absent from the result.
func (s *Service) Names(ctx context.Context, ids []id.PatientID) (map[id.PatientID]string, error) {
	names, err := s.store.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve patient names")
	}
	return names, nil
}

func (s *Service) find(ctx context.Context, patientID id.PatientID) (*models.Patient, error) {
	p, err := s.store.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "patient not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load patient")
	}
	return p, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.AuditEvent, p *models.Patient) {
	requestID := requestcontext.RequestID(ctx)
	s.logger.InfoContext(ctx, string(event),
		"patient_id", p.ID.String(),
		"request_id", requestID,
		"log_type", "audit",
	)
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(event),
		Entity:    audit.EntityPatient,
		EntityID:  p.ID.String(),
		RequestID: requestID,
		Actor:     requestcontext.Staff(ctx),
		CPFHash:   s.hasher.Hash(p.CPF.Digits()),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", string(event),
			"patient_id", p.ID.String(),
			"request_id", requestID,
			"error", err,
		)
	}
}
