package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clinic/internal/patient/models"
	"clinic/pkg/cpf"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
)

type PatientStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *PatientStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestPatientStoreSuite(t *testing.T) {
	suite.Run(t, new(PatientStoreSuite))
}

func newPatient(name, digits string) *models.Patient {
	now := time.Now()
	return &models.Patient{
		ID:        id.NewPatientID(),
		Name:      name,
		CPF:       cpf.MustParse(digits),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PatientStoreSuite) TestCreateAndFind() {
	s.Run("creates and finds by ID and CPF", func() {
		p := newPatient("Ana", "52998224725")
		s.Require().NoError(s.store.Create(s.ctx, p))

		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal("Ana", found.Name)

		found, err = s.store.FindByCPF(s.ctx, "52998224725")
		s.Require().NoError(err)
		s.Equal(p.ID, found.ID)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.NewPatientID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned patient is a copy", func() {
		p := newPatient("Bia", "11144447747")
		s.Require().NoError(s.store.Create(s.ctx, p))
		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		found.Name = "changed"

		again, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal("Bia", again.Name)
	})
}

func (s *PatientStoreSuite) TestCPFUniqueness() {
	first := newPatient("Ana", "52998224725")
	s.Require().NoError(s.store.Create(s.ctx, first))

	s.Run("rejects duplicate CPF on create", func() {
		err := s.store.Create(s.ctx, newPatient("Outra", "52998224725"))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("rejects update to a CPF owned by another patient", func() {
		second := newPatient("Bia", "12345678909")
		s.Require().NoError(s.store.Create(s.ctx, second))
		second.CPF = first.CPF
		s.ErrorIs(s.store.Update(s.ctx, second), sentinel.ErrAlreadyUsed)
	})

	s.Run("allows update keeping own CPF and frees the old one on change", func() {
		first.Name = "Ana Maria"
		s.Require().NoError(s.store.Update(s.ctx, first))

		first.CPF = cpf.MustParse("11144447747")
		s.Require().NoError(s.store.Update(s.ctx, first))
		s.NoError(s.store.Create(s.ctx, newPatient("Nova", "52998224725")))
	})

	s.Run("update of unknown patient", func() {
		s.ErrorIs(s.store.Update(s.ctx, newPatient("X", "22345678909")), sentinel.ErrNotFound)
	})
}

func (s *PatientStoreSuite) TestListOrderedByNameCaseInsensitive() {
	s.Require().NoError(s.store.Create(s.ctx, newPatient("carlos", "52998224725")))
	s.Require().NoError(s.store.Create(s.ctx, newPatient("Bruna", "11144447747")))
	s.Require().NoError(s.store.Create(s.ctx, newPatient("ana", "12345678909")))

	list, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("ana", list[0].Name)
	s.Equal("Bruna", list[1].Name)
	s.Equal("carlos", list[2].Name)
}

func (s *PatientStoreSuite) TestListSortsAccentedNamesBesideTheirLetter() {
	s.Require().NoError(s.store.Create(s.ctx, newPatient("Zélia Souza", "52998224725")))
	s.Require().NoError(s.store.Create(s.ctx, newPatient("Bruno Costa", "11144447747")))
	s.Require().NoError(s.store.Create(s.ctx, newPatient("Álvaro Lima", "12345678909")))
	s.Require().NoError(s.store.Create(s.ctx, newPatient("Érica Nunes", "98765432100")))

	list, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	names := make([]string, 0, len(list))
	for _, p := range list {
		names = append(names, p.Name)
	}
	s.Equal([]string{"Álvaro Lima", "Bruno Costa", "Érica Nunes", "Zélia Souza"}, names)
}

func (s *PatientStoreSuite) TestDeleteCountAndNames() {
	a := newPatient("Ana", "52998224725")
	b := newPatient("Bia", "11144447747")
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	n, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	names, err := s.store.NamesByIDs(s.ctx, []id.PatientID{a.ID, b.ID, id.NewPatientID()})
	s.Require().NoError(err)
	s.Equal(map[id.PatientID]string{a.ID: "Ana", b.ID: "Bia"}, names)

	s.Require().NoError(s.store.Delete(s.ctx, a.ID))
	s.ErrorIs(s.store.Delete(s.ctx, a.ID), sentinel.ErrNotFound)
	_, err = s.store.FindByCPF(s.ctx, "52998224725")
	s.ErrorIs(err, sentinel.ErrNotFound)

	removed, err := s.store.DeleteAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, removed)
	n, err = s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
}
