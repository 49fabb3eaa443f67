package seed

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	appointmentmodels "clinic/internal/appointment/models"
	patientmodels "clinic/internal/patient/models"
	"clinic/pkg/platform/tx"
)

type PatientStore interface {
	Create(ctx context.Context, p *patientmodels.Patient) error
	DeleteAll(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
}

type AppointmentStore interface {
	Create(ctx context.Context, a *appointmentmodels.Appointment) error
	DeleteAll(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status appointmentmodels.Status) (int, error)
}

// StoreSink writes through the regular stores, one row at a time, inside a
// single transaction when the runner provides one.
type StoreSink struct {
	patients     PatientStore
	appointments AppointmentStore
	runner       tx.Runner
}

func NewStoreSink(patients PatientStore, appointments AppointmentStore, runner tx.Runner) *StoreSink {
	if runner == nil {
		runner = tx.NoopRunner{}
	}
	return &StoreSink{patients: patients, appointments: appointments, runner: runner}
}

func (s *StoreSink) Clear(ctx context.Context) error {
	return s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.appointments.DeleteAll(ctx); err != nil {
			return err
		}
		_, err := s.patients.DeleteAll(ctx)
		return err
	})
}

func (s *StoreSink) Write(ctx context.Context, patients []*patientmodels.Patient, appointments []*appointmentmodels.Appointment) error {
	return s.runner.RunInTx(ctx, func(ctx context.Context) error {
		for _, p := range patients {
			if err := s.patients.Create(ctx, p); err != nil {
				return err
			}
		}
		for _, a := range appointments {
			if err := s.appointments.Create(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *StoreSink) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByStatus: make(map[appointmentmodels.Status]int, len(appointmentmodels.Statuses))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Patients, err = s.patients.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Appointments, err = s.appointments.Count(gctx)
		return err
	})
	for _, status := range appointmentmodels.Statuses {
		g.Go(func() error {
			n, err := s.appointments.CountByStatus(gctx, status)
			if err != nil {
				return err
			}
			mu.Lock()
			stats.ByStatus[status] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
