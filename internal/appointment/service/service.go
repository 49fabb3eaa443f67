package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"clinic/internal/appointment/models"
	appointmentstore "clinic/internal/appointment/store"
	patientmodels "clinic/internal/patient/models"
	"clinic/internal/platform/metrics"
	"clinic/internal/platform/tracing"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	audit "clinic/pkg/platform/audit"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, a *models.Appointment) error
	Update(ctx context.Context, a *models.Appointment) error
	FindByID(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error)
	List(ctx context.Context) ([]*models.Appointment, error)
	Latest(ctx context.Context, n int) ([]*models.Appointment, error)
	Delete(ctx context.Context, appointmentID id.AppointmentID) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status models.Status) (int, error)
}

// PatientDirectory resolves the patients appointments refer to.
type PatientDirectory interface {
	Get(ctx context.Context, patientID id.PatientID) (*patientmodels.Patient, error)
	Names(ctx context.Context, ids []id.PatientID) (map[id.PatientID]string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages appointments.
type Service struct {
	store          Store
	patients       PatientDirectory
	location       *time.Location
	logger         *slog.Logger
	auditPublisher AuditPublisher
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLocation sets the zone request dates and times are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.location = loc
	}
}

func New(store Store, patients PatientDirectory, opts ...Option) *Service {
	s := &Service{
		store:    store,
		patients: patients,
		location: time.UTC,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   tracing.Tracer("clinic/appointment"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every appointment with its patient's name, latest scheduled first.
func (s *Service) List(ctx context.Context) (_ []models.View, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "appointment.List")
	defer func() { end(err) }()

	appointments, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list appointments")
	}
	return s.withNames(ctx, appointments)
}

// Latest returns the n most recently created appointments with patient names.
func (s *Service) Latest(ctx context.Context, n int) (_ []models.View, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "appointment.Latest", attribute.Int("limit", n))
	defer func() { end(err) }()

	appointments, err := s.store.Latest(ctx, n)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest appointments")
	}
	return s.withNames(ctx, appointments)
}

// Create books a new appointment. New appointments are always scheduled;
// a status sent with the request is validated but not applied.
func (s *Service) Create(ctx context.Context, req *models.AppointmentRequest) (_ *models.View, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "appointment.Create")
	defer func() { end(err) }()

	fields, patientName, err := s.parse(ctx, req)
	if err != nil {
		return nil, err
	}
	fields.Status = models.StatusScheduled

	a, err := models.NewAppointment(id.NewAppointmentID(), fields, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, appointmentstore.ErrPatientMissing) {
			return nil, dErrors.New(dErrors.CodeValidation, "patient_id does not reference an existing patient")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create appointment")
	}

	s.emitAudit(ctx, audit.EventAppointmentCreated, a)
	s.metrics.IncrementCreated(audit.EntityAppointment)
	return &models.View{Appointment: a, PatientName: patientName}, nil
}

func (s *Service) Get(ctx context.Context, appointmentID id.AppointmentID) (_ *models.View, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "appointment.Get", attribute.String("appointment_id", appointmentID.String()))
	defer func() { end(err) }()

	a, err := s.find(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	views, err := s.withNames(ctx, []*models.Appointment{a})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Update replaces the appointment's fields. An omitted status becomes scheduled.
func (s *Service) Update(ctx context.Context, appointmentID id.AppointmentID, req *models.AppointmentRequest) (_ *models.View, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "appointment.Update", attribute.String("appointment_id", appointmentID.String()))
	defer func() { end(err) }()

	a, err := s.find(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	fields, patientName, err := s.parse(ctx, req)
	if err != nil {
		return nil, err
	}
	a.Apply(fields, requestcontext.Now(ctx))

	if err := s.store.Update(ctx, a); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "appointment not found")
		case errors.Is(err, appointmentstore.ErrPatientMissing):
			return nil, dErrors.New(dErrors.CodeValidation, "patient_id does not reference an existing patient")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update appointment")
	}

	s.emitAudit(ctx, audit.EventAppointmentUpdated, a)
	s.metrics.IncrementUpdated(audit.EntityAppointment)
	return &models.View{Appointment: a, PatientName: patientName}, nil
}

func (s *Service) Delete(ctx context.Context, appointmentID id.AppointmentID) (err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "appointment.Delete", attribute.String("appointment_id", appointmentID.String()))
	defer func() { end(err) }()

	a, err := s.find(ctx, appointmentID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, appointmentID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "appointment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete appointment")
	}

	s.emitAudit(ctx, audit.EventAppointmentDeleted, a)
	s.metrics.IncrementDeleted(audit.EntityAppointment, 1)
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count appointments")
	}
	return n, nil
}

func (s *Service) CountByStatus(ctx context.Context, status models.Status) (int, error) {
	if !status.IsValid() {
		return 0, dErrors.New(dErrors.CodeValidation, "invalid appointment status")
	}
	n, err := s.store.CountByStatus(ctx, status)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count appointments by status")
	}
	return n, nil
}

func (s *Service) parse(ctx context.Context, req *models.AppointmentRequest) (models.Fields, string, error) {
	req.Normalize()
	fields, err := req.Validate(s.location)
	if err != nil {
		return models.Fields{}, "", err
	}
	patient, err := s.patients.Get(ctx, fields.PatientID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return models.Fields{}, "", dErrors.New(dErrors.CodeValidation, "patient_id does not reference an existing patient")
		}
		return models.Fields{}, "", err
	}
	return fields, patient.Name, nil
}

func (s *Service) find(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	a, err := s.store.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "appointment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load appointment")
	}
	return a, nil
}

func (s *Service) withNames(ctx context.Context, appointments []*models.Appointment) ([]models.View, error) {
	seen := make(map[id.PatientID]struct{}, len(appointments))
	ids := make([]id.PatientID, 0, len(appointments))
	for _, a := range appointments {
		if _, ok := seen[a.PatientID]; !ok {
			seen[a.PatientID] = struct{}{}
			ids = append(ids, a.PatientID)
		}
	}
	names := map[id.PatientID]string{}
	if len(ids) > 0 {
		var err error
		names, err = s.patients.Names(ctx, ids)
		if err != nil {
			return nil, err
		}
	}
	views := make([]models.View, len(appointments))
	for i, a := range appointments {
		views[i] = models.View{Appointment: a, PatientName: names[a.PatientID]}
	}
	return views, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.AuditEvent, a *models.Appointment) {
	requestID := requestcontext.RequestID(ctx)
	s.logger.InfoContext(ctx, string(event),
		"appointment_id", a.ID.String(),
		"patient_id", a.PatientID.String(),
		"status", string(a.Status),
		"request_id", requestID,
		"log_type", "audit",
	)
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(event),
		Entity:    audit.EntityAppointment,
		EntityID:  a.ID.String(),
		RequestID: requestID,
		Actor:     requestcontext.Staff(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", string(event),
			"appointment_id", a.ID.String(),
			"request_id", requestID,
			"error", err,
		)
	}
}
