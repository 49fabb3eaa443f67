package handler

//go:generate mockgen -source=handler.go -destination=mocks/dashboard-mocks.go -package=mocks Service

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clinic/internal/dashboard/handler/mocks"
	"clinic/internal/dashboard/models"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/testutil"
)

type DashboardHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestDashboardHandlerSuite(t *testing.T) {
	suite.Run(t, new(DashboardHandlerSuite))
}

func (s *DashboardHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *DashboardHandlerSuite) TestSummary() {
	s.Run("ok", func() {
		s.service.EXPECT().Summary(gomock.Any()).Return(&models.Summary{
			TotalPatients:         3,
			TotalAppointments:     9,
			ScheduledAppointments: 4,
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/dashboard"))
		testutil.AssertStatusOK(s.T(), rr)

		resp := testutil.UnmarshalResponse[models.Summary](s.T(), rr)
		s.Equal(3, resp.TotalPatients)
		s.Equal(9, resp.TotalAppointments)
		s.Equal(4, resp.ScheduledAppointments)
	})

	s.Run("failure", func() {
		s.service.EXPECT().Summary(gomock.Any()).Return(nil, dErrors.New(dErrors.CodeInternal, "boom"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/dashboard"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}
