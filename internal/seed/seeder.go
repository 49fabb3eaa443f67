package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	appointmentmodels "clinic/internal/appointment/models"
	patientmodels "clinic/internal/patient/models"
)

const (
	DefaultPatients     = 50
	DefaultAppointments = 100
	DefaultSeed         = 42

	patientProgressEvery     = 10
	appointmentProgressEvery = 20
)

// Sink persists seeded records.
type Sink interface {
	Clear(ctx context.Context) error
	Write(ctx context.Context, patients []*patientmodels.Patient, appointments []*appointmentmodels.Appointment) error
	Stats(ctx context.Context) (Stats, error)
}

// Stats summarises what the sink holds after seeding.
type Stats struct {
	Patients     int
	Appointments int
	ByStatus     map[appointmentmodels.Status]int
}

type Options struct {
	Patients     int
	Appointments int
	Seed         uint64
	// Clear removes existing appointments and patients first.
	Clear bool
	// Now anchors birth dates and appointment dates. Zero means time.Now.
	Now time.Time
}

type Seeder struct {
	sink   Sink
	logger *slog.Logger
}

func New(sink Sink, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Seeder{sink: sink, logger: logger}
}

func (s *Seeder) Run(ctx context.Context, opts Options) (Stats, error) {
	if opts.Patients < 0 || opts.Appointments < 0 {
		return Stats{}, errors.New("record counts must not be negative")
	}
	if opts.Patients == 0 && opts.Appointments > 0 {
		return Stats{}, errors.New("appointments need at least one patient")
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	if opts.Clear {
		s.logger.InfoContext(ctx, "clearing existing data")
		if err := s.sink.Clear(ctx); err != nil {
			return Stats{}, fmt.Errorf("clear existing data: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "seeding",
		"patients", opts.Patients,
		"appointments", opts.Appointments,
		"seed", opts.Seed,
	)
	gen := NewGenerator(opts.Seed, opts.Now)

	patients := make([]*patientmodels.Patient, 0, opts.Patients)
	for i := range opts.Patients {
		p, err := gen.Patient()
		if err != nil {
			return Stats{}, fmt.Errorf("generate patient %d: %w", i+1, err)
		}
		patients = append(patients, p)
		if (i+1)%patientProgressEvery == 0 {
			s.logger.InfoContext(ctx, "patients generated", "count", i+1)
		}
	}

	appointments := make([]*appointmentmodels.Appointment, 0, opts.Appointments)
	for i := range opts.Appointments {
		a, err := gen.Appointment(patients)
		if err != nil {
			return Stats{}, fmt.Errorf("generate appointment %d: %w", i+1, err)
		}
		appointments = append(appointments, a)
		if (i+1)%appointmentProgressEvery == 0 {
			s.logger.InfoContext(ctx, "appointments generated", "count", i+1)
		}
	}

	if err := s.sink.Write(ctx, patients, appointments); err != nil {
		return Stats{}, fmt.Errorf("write seed data: %w", err)
	}
	s.logger.InfoContext(ctx, "seed data saved",
		"patients", len(patients),
		"appointments", len(appointments),
	)

	stats, err := s.sink.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("collect stats: %w", err)
	}
	s.logger.InfoContext(ctx, "seed complete",
		"total_patients", stats.Patients,
		"total_appointments", stats.Appointments,
		"scheduled", stats.ByStatus[appointmentmodels.StatusScheduled],
		"completed", stats.ByStatus[appointmentmodels.StatusCompleted],
		"cancelled", stats.ByStatus[appointmentmodels.StatusCancelled],
	)
	return stats, nil
}
