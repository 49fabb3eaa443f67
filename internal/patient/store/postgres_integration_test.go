//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clinic/internal/patient/models"
	"clinic/internal/patient/store"
	"clinic/pkg/cpf"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/platform/tx"
	"clinic/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "appointments", "patients"))
}

func newPatient(name, digits string) *models.Patient {
	now := time.Now().UTC().Truncate(time.Microsecond)
	bd := time.Date(1985, 3, 10, 0, 0, 0, 0, time.UTC)
	return &models.Patient{
		ID:        id.NewPatientID(),
		Name:      name,
		CPF:       cpf.MustParse(digits),
		Phone:     "(11) 91234-5678",
		Email:     "paciente@example.com",
		BirthDate: &bd,
		Address:   "Rua das Flores 10, São Paulo/SP",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	p := newPatient("Maria da Silva", "52998224725")
	s.Require().NoError(s.store.Create(ctx, p))

	got, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.Name, got.Name)
	s.Equal(p.CPF, got.CPF)
	s.Equal(p.Address, got.Address)
	s.Require().NotNil(got.BirthDate)
	s.Equal("1985-03-10", got.BirthDate.Format(models.DateLayout))
	s.True(p.CreatedAt.Equal(got.CreatedAt))

	byCPF, err := s.store.FindByCPF(ctx, "52998224725")
	s.Require().NoError(err)
	s.Equal(p.ID, byCPF.ID)
}

func (s *PostgresStoreSuite) TestNullBirthDate() {
	ctx := context.Background()
	p := newPatient("Sem Data", "12345678909")
	p.BirthDate = nil
	s.Require().NoError(s.store.Create(ctx, p))

	got, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Nil(got.BirthDate)
}

func (s *PostgresStoreSuite) TestDuplicateCPF() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newPatient("A", "52998224725")))

	err := s.store.Create(ctx, newPatient("B", "52998224725"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	other := newPatient("C", "12345678909")
	s.Require().NoError(s.store.Create(ctx, other))
	other.CPF = cpf.MustParse("52998224725")
	s.ErrorIs(s.store.Update(ctx, other), sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestListOrderNamesAndDelete() {
	ctx := context.Background()
	zeca := newPatient("zeca Souza", "52998224725")
	ana := newPatient("Ana Lima", "12345678909")
	s.Require().NoError(s.store.Create(ctx, zeca))
	s.Require().NoError(s.store.Create(ctx, ana))

	list, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("Ana Lima", list[0].Name)

	names, err := s.store.NamesByIDs(ctx, []id.PatientID{zeca.ID, id.NewPatientID()})
	s.Require().NoError(err)
	s.Equal(map[id.PatientID]string{zeca.ID: "zeca Souza"}, names)

	s.Require().NoError(s.store.Delete(ctx, zeca.ID))
	s.ErrorIs(s.store.Delete(ctx, zeca.ID), sentinel.ErrNotFound)
	_, err = s.store.FindByID(ctx, zeca.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PostgresStoreSuite) TestRollbackInsideTx() {
	ctx := context.Background()
	runner := tx.NewSQLRunner(s.postgres.DB)
	p := newPatient("Rollback", "52998224725")

	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, p); err != nil {
			return err
		}
		return errors.New("abort")
	})
	s.Error(err)

	_, err = s.store.FindByID(ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
