package store

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"clinic/internal/patient/models"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
)

// InMemory keeps patients in a map guarded by an RWMutex. CPF uniqueness is
// enforced through a secondary index keyed by raw digits.
type InMemory struct {
	mu       sync.RWMutex
	patients map[id.PatientID]*models.Patient
	byCPF    map[string]id.PatientID
}

func NewInMemory() *InMemory {
	return &InMemory{
		patients: make(map[id.PatientID]*models.Patient),
		byCPF:    make(map[string]id.PatientID),
	}
}

func (s *InMemory) Create(_ context.Context, p *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCPF[p.CPF.Digits()]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.patients[p.ID] = clonePatient(p)
	s.byCPF[p.CPF.Digits()] = p.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, p *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.patients[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.byCPF[p.CPF.Digits()]; taken && owner != p.ID {
		return sentinel.ErrAlreadyUsed
	}
	delete(s.byCPF, existing.CPF.Digits())
	s.patients[p.ID] = clonePatient(p)
	s.byCPF[p.CPF.Digits()] = p.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, patientID id.PatientID) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[patientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clonePatient(p), nil
}

func (s *InMemory) FindByCPF(_ context.Context, digits string) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	patientID, ok := s.byCPF[digits]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clonePatient(s.patients[patientID]), nil
}

// List returns all patients ordered by name under Brazilian Portuguese
// collation, ignoring case, with ID as the tie-break. Accented names sort
// beside their base letter.
func (s *InMemory) List(_ context.Context) ([]*models.Patient, error) {
	s.mu.RLock()
	out := make([]*models.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, clonePatient(p))
	}
	s.mu.RUnlock()

	// a Collator keeps scratch buffers, so each call gets its own
	c := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.Slice(out, func(i, j int) bool {
		if cmp := c.CompareString(out[i].Name, out[j].Name); cmp != 0 {
			return cmp < 0
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, patientID id.PatientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[patientID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byCPF, p.CPF.Digits())
	delete(s.patients, patientID)
	return nil
}

// DeleteAll removes every patient and returns how many were removed.
func (s *InMemory) DeleteAll(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.patients)
	s.patients = make(map[id.PatientID]*models.Patient)
	s.byCPF = make(map[string]id.PatientID)
	return n, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patients), nil
}

// NamesByIDs returns names for the IDs that exist. Unknown IDs are omitted.
func (s *InMemory) NamesByIDs(_ context.Context, ids []id.PatientID) (map[id.PatientID]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make(map[id.PatientID]string, len(ids))
	for _, patientID := range ids {
		if p, ok := s.patients[patientID]; ok {
			names[patientID] = p.Name
		}
	}
	return names, nil
}

func clonePatient(p *models.Patient) *models.Patient {
	c := *p
	if p.BirthDate != nil {
		bd := *p.BirthDate
		c.BirthDate = &bd
	}
	return &c
}
