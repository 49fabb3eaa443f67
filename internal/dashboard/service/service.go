package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	appointmentmodels "clinic/internal/appointment/models"
	"clinic/internal/dashboard/models"
	"clinic/internal/platform/metrics"
	"clinic/internal/platform/tracing"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/requestcontext"
)

type PatientCounter interface {
	Count(ctx context.Context) (int, error)
}

type AppointmentReader interface {
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status appointmentmodels.Status) (int, error)
	Latest(ctx context.Context, n int) ([]appointmentmodels.View, error)
}

// Cache holds the last computed summary. Get returns sentinel.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context) (*models.Summary, error)
	Set(ctx context.Context, summary *models.Summary) error
}

const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

type Service struct {
	patients     PatientCounter
	appointments AppointmentReader
	cache        Cache
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Service)

// WithCache enables summary caching. Without it every call hits the stores.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(patients PatientCounter, appointments AppointmentReader, opts ...Option) *Service {
	s := &Service{
		patients:     patients,
		appointments: appointments,
		logger:       slog.New(slog.DiscardHandler),
		tracer:       tracing.Tracer("clinic/dashboard"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary returns the cached summary when available, otherwise computes it
// from the stores. Cache failures are logged and never surface to callers.
func (s *Service) Summary(ctx context.Context) (_ *models.Summary, err error) {
	ctx, end := tracing.Start(ctx, s.tracer, "dashboard.Summary")
	defer func() { end(err) }()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		switch {
		case err == nil:
			s.metrics.RecordCache(cacheHit)
			return cached, nil
		case errors.Is(err, sentinel.ErrNotFound):
			s.metrics.RecordCache(cacheMiss)
		default:
			s.metrics.RecordCache(cacheError)
			s.logger.WarnContext(ctx, "dashboard cache read failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}

	summary, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			s.logger.WarnContext(ctx, "dashboard cache write failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}
	return summary, nil
}

func (s *Service) compute(ctx context.Context) (*models.Summary, error) {
	defer s.metrics.ObserveSummary(time.Now())

	var (
		summary = &models.Summary{GeneratedAt: requestcontext.Now(ctx)}
		recent  []appointmentmodels.View
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary.TotalPatients, err = s.patients.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		summary.TotalAppointments, err = s.appointments.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		summary.ScheduledAppointments, err = s.appointments.CountByStatus(gctx, appointmentmodels.StatusScheduled)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.appointments.Latest(gctx, models.RecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		if _, ok := dErrors.From(err); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute dashboard summary")
	}

	summary.RecentAppointments = appointmentmodels.ToResponses(recent)
	return summary, nil
}
