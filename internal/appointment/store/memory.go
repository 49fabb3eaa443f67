package store

import (
	"context"
	"sort"
	"sync"

	"clinic/internal/appointment/models"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
)

// InMemory keeps appointments in a map guarded by an RWMutex.
type InMemory struct {
	mu           sync.RWMutex
	appointments map[id.AppointmentID]*models.Appointment
}

func NewInMemory() *InMemory {
	return &InMemory{appointments: make(map[id.AppointmentID]*models.Appointment)}
}

func (s *InMemory) Create(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[a.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	c := *a
	s.appointments[a.ID] = &c
	return nil
}

func (s *InMemory) Update(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	c := *a
	s.appointments[a.ID] = &c
	return nil
}

func (s *InMemory) FindByID(_ context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[appointmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *a
	return &c, nil
}

// List returns every appointment, latest scheduled first.
func (s *InMemory) List(_ context.Context) ([]*models.Appointment, error) {
	out := s.snapshot()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.After(out[j].ScheduledAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Latest returns up to n appointments, most recently created first.
func (s *InMemory) Latest(_ context.Context, n int) ([]*models.Appointment, error) {
	out := s.snapshot()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, appointmentID id.AppointmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[appointmentID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.appointments, appointmentID)
	return nil
}

func (s *InMemory) DeleteByPatient(_ context.Context, patientID id.PatientID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for appointmentID, a := range s.appointments {
		if a.PatientID == patientID {
			delete(s.appointments, appointmentID)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemory) DeleteAll(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.appointments)
	s.appointments = make(map[id.AppointmentID]*models.Appointment)
	return n, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.appointments), nil
}

func (s *InMemory) CountByStatus(_ context.Context, status models.Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.appointments {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) snapshot() []*models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		c := *a
		out = append(out, &c)
	}
	return out
}
