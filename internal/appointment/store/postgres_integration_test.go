//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clinic/internal/appointment/models"
	"clinic/internal/appointment/store"
	patientmodels "clinic/internal/patient/models"
	patientstore "clinic/internal/patient/store"
	"clinic/pkg/cpf"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	patients *patientstore.PostgresStore
	patient  *patientmodels.Patient
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
	s.patients = patientstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "appointments", "patients"))

	now := time.Now().UTC().Truncate(time.Microsecond)
	s.patient = &patientmodels.Patient{
		ID:        id.NewPatientID(),
		Name:      "Maria da Silva",
		CPF:       cpf.MustParse("52998224725"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.patients.Create(ctx, s.patient))
}

func (s *PostgresStoreSuite) newAppointment(scheduledIn, createdAgo time.Duration, status models.Status) *models.Appointment {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Appointment{
		ID:          id.NewAppointmentID(),
		PatientID:   s.patient.ID,
		ScheduledAt: now.Add(scheduledIn),
		Doctor:      "Dr. Carlos Souza",
		Specialty:   "Cardiologia",
		Status:      status,
		CreatedAt:   now.Add(-createdAgo),
		UpdatedAt:   now.Add(-createdAgo),
	}
}

func (s *PostgresStoreSuite) TestRoundTripAndUpdate() {
	ctx := context.Background()
	a := s.newAppointment(time.Hour, 0, models.StatusScheduled)
	s.Require().NoError(s.store.Create(ctx, a))

	got, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.Doctor, got.Doctor)
	s.Equal(models.StatusScheduled, got.Status)
	s.True(a.ScheduledAt.Equal(got.ScheduledAt))

	a.Status = models.StatusCompleted
	a.Notes = "Retorno de exames"
	s.Require().NoError(s.store.Update(ctx, a))
	got, err = s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, got.Status)
	s.Equal("Retorno de exames", got.Notes)

	s.ErrorIs(s.store.Update(ctx, s.newAppointment(0, 0, models.StatusScheduled)), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestMissingPatient() {
	a := s.newAppointment(time.Hour, 0, models.StatusScheduled)
	a.PatientID = id.NewPatientID()
	s.ErrorIs(s.store.Create(context.Background(), a), store.ErrPatientMissing)
}

func (s *PostgresStoreSuite) TestOrderingAndCounts() {
	ctx := context.Background()
	early := s.newAppointment(time.Hour, time.Minute, models.StatusScheduled)
	late := s.newAppointment(48*time.Hour, 3*time.Minute, models.StatusCancelled)
	s.Require().NoError(s.store.Create(ctx, early))
	s.Require().NoError(s.store.Create(ctx, late))

	list, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(late.ID, list[0].ID)

	latest, err := s.store.Latest(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(latest, 1)
	s.Equal(early.ID, latest[0].ID)

	n, err := s.store.CountByStatus(ctx, models.StatusScheduled)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PostgresStoreSuite) TestPatientDeleteCascades() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newAppointment(time.Hour, 0, models.StatusScheduled)))
	s.Require().NoError(s.store.Create(ctx, s.newAppointment(2*time.Hour, 0, models.StatusScheduled)))

	removed, err := s.store.DeleteByPatient(ctx, s.patient.ID)
	s.Require().NoError(err)
	s.Equal(2, removed)

	s.Require().NoError(s.store.Create(ctx, s.newAppointment(time.Hour, 0, models.StatusScheduled)))
	s.Require().NoError(s.patients.Delete(ctx, s.patient.ID))
	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Zero(n)
}
