package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AppointmentRemover,AuditPublisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clinic/internal/patient/models"
	"clinic/internal/patient/service/mocks"
	"clinic/pkg/cpf"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	audit "clinic/pkg/platform/audit"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/requestcontext"
)

type PatientServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	store        *mocks.MockStore
	appointments *mocks.MockAppointmentRemover
	publisher    *mocks.MockAuditPublisher
	service      *Service
	ctx          context.Context
	now          time.Time
}

var testHasher = audit.NewHasher([]byte("test-secret"))

func TestPatientServiceSuite(t *testing.T) {
	suite.Run(t, new(PatientServiceSuite))
}

func (s *PatientServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.appointments = mocks.NewMockAppointmentRemover(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.service = New(s.store,
		WithAppointmentRemover(s.appointments),
		WithAuditPublisher(s.publisher),
		WithIdentifierHasher(testHasher),
	)
	s.now = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctx = requestcontext.WithRequestID(s.ctx, "req-1")
	s.ctx = requestcontext.WithStaff(s.ctx, "recepcao")
}

func (s *PatientServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func validRequest() *models.PatientRequest {
	return &models.PatientRequest{
		Name:      "Maria da Silva",
		CPF:       "529.982.247-25",
		Email:     "maria@example.com",
		BirthDate: "1985-03-10",
	}
}

func existingPatient() *models.Patient {
	bd := time.Date(1985, 3, 10, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.Patient{
		ID:        id.NewPatientID(),
		Name:      "Maria da Silva",
		CPF:       cpf.MustParse("52998224725"),
		BirthDate: &bd,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (s *PatientServiceSuite) cpfFree() {
	s.store.EXPECT().FindByCPF(gomock.Any(), "52998224725").Return(nil, sentinel.ErrNotFound)
}

func (s *PatientServiceSuite) TestCreate() {
	s.Run("stores patient and emits audit with hashed CPF", func() {
		s.cpfFree()
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventPatientCreated), e.Action)
				s.Equal(audit.EntityPatient, e.Entity)
				s.Equal("req-1", e.RequestID)
				s.Equal("recepcao", e.Actor)
				s.Equal(testHasher.Hash("52998224725"), e.CPFHash)
				s.NotEqual(audit.Hasher{}.Hash("52998224725"), e.CPFHash)
				return nil
			})

		p, err := s.service.Create(s.ctx, validRequest())
		s.Require().NoError(err)
		s.False(p.ID.IsNil())
		s.Equal("52998224725", p.CPF.Digits())
		s.Equal(s.now, p.CreatedAt)
	})

	s.Run("CPF held by another patient is a conflict naming the holder", func() {
		holder := existingPatient()
		holder.Name = "Joana Prado"
		s.store.EXPECT().FindByCPF(gomock.Any(), "52998224725").Return(holder, nil)

		_, err := s.service.Create(s.ctx, validRequest())
		s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "Joana Prado")
	})

	s.Run("duplicate inserted concurrently is still a conflict", func() {
		s.cpfFree()
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)

		_, err := s.service.Create(s.ctx, validRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("CPF lookup failure is internal", func() {
		s.store.EXPECT().FindByCPF(gomock.Any(), "52998224725").Return(nil, errors.New("db down"))

		_, err := s.service.Create(s.ctx, validRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("wrong check digits never reach the store", func() {
		req := validRequest()
		req.CPF = "529.982.247-24"
		_, err := s.service.Create(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("malformed CPF is a bad request", func() {
		req := validRequest()
		req.CPF = "529.982"
		_, err := s.service.Create(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("store failure is internal", func() {
		s.cpfFree()
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
		_, err := s.service.Create(s.ctx, validRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("audit failure does not fail the request", func() {
		s.cpfFree()
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("kafka down"))

		_, err := s.service.Create(s.ctx, validRequest())
		s.NoError(err)
	})
}

func (s *PatientServiceSuite) TestGet() {
	s.Run("not found", func() {
		s.store.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Get(s.ctx, id.NewPatientID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("found", func() {
		p := existingPatient()
		s.store.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil)
		got, err := s.service.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.ID, got.ID)
	})
}

func (s *PatientServiceSuite) TestUpdate() {
	s.Run("omitted birth date keeps stored value", func() {
		p := existingPatient()
		storedBirth := *p.BirthDate
		s.store.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil)
		s.store.EXPECT().FindByCPF(gomock.Any(), "52998224725").Return(p, nil)
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, updated *models.Patient) error {
				s.Require().NotNil(updated.BirthDate)
				s.Equal(storedBirth, *updated.BirthDate)
				s.Equal("Maria Souza", updated.Name)
				s.Equal(s.now, updated.UpdatedAt)
				return nil
			})
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		req := validRequest()
		req.Name = "Maria Souza"
		req.BirthDate = ""
		_, err := s.service.Update(s.ctx, p.ID, req)
		s.Require().NoError(err)
	})

	s.Run("CPF taken by another patient never reaches the store", func() {
		p := existingPatient()
		other := existingPatient()
		other.Name = "Joana Prado"
		s.store.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil)
		s.store.EXPECT().FindByCPF(gomock.Any(), "11144447747").Return(other, nil)

		req := validRequest()
		req.CPF = "111.444.477-47"
		_, err := s.service.Update(s.ctx, p.ID, req)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "Joana Prado")
	})

	s.Run("CPF taken concurrently is still a conflict", func() {
		p := existingPatient()
		s.store.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil)
		s.store.EXPECT().FindByCPF(gomock.Any(), "11144447747").Return(nil, sentinel.ErrNotFound)
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)

		req := validRequest()
		req.CPF = "111.444.477-47"
		_, err := s.service.Update(s.ctx, p.ID, req)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown patient", func() {
		s.store.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Update(s.ctx, id.NewPatientID(), validRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *PatientServiceSuite) TestDelete() {
	s.Run("cascades appointments before deleting the patient", func() {
		p := existingPatient()
		gomock.InOrder(
			s.store.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil),
			s.appointments.EXPECT().DeleteByPatient(gomock.Any(), p.ID).Return(3, nil),
			s.store.EXPECT().Delete(gomock.Any(), p.ID).Return(nil),
		)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventPatientDeleted), e.Action)
				return nil
			})

		s.NoError(s.service.Delete(s.ctx, p.ID))
	})

	s.Run("cascade failure aborts delete", func() {
		p := existingPatient()
		s.store.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil)
		s.appointments.EXPECT().DeleteByPatient(gomock.Any(), p.ID).Return(0, errors.New("db down"))

		err := s.service.Delete(s.ctx, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("unknown patient", func() {
		s.store.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		err := s.service.Delete(s.ctx, id.NewPatientID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *PatientServiceSuite) TestListCountNames() {
	a, b := existingPatient(), existingPatient()
	s.store.EXPECT().List(gomock.Any()).Return([]*models.Patient{a, b}, nil)
	s.store.EXPECT().Count(gomock.Any()).Return(2, nil)
	s.store.EXPECT().NamesByIDs(gomock.Any(), []id.PatientID{a.ID}).Return(map[id.PatientID]string{a.ID: a.Name}, nil)

	list, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 2)

	n, err := s.service.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	names, err := s.service.Names(s.ctx, []id.PatientID{a.ID})
	s.Require().NoError(err)
	s.Equal(a.Name, names[a.ID])
}
