package httptransport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"admission/internal/admission/models"
	"admission/internal/admission/service"
	"admission/internal/platform/metrics"
	"admission/internal/verification"
	"admission/internal/verification/store"
	"admission/pkg/platform/middleware/requestlog"
	"admission/pkg/testutil"
)

// RouterSuite exercises the router against a real service and registry.
type RouterSuite struct {
	suite.Suite
	service *service.Service
	router  http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ctx := context.Background()
	catalog, err := models.NewCatalog([]string{"Alpha", "Beta"}, 4)
	s.Require().NoError(err)

	registry := store.New(store.DefaultCapacity)
	s.Require().NoError(store.Seed(ctx, registry))

	reg := prometheus.NewRegistry()
	validator := verification.NewValidator(verification.WithClock(func() time.Time {
		return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	}))
	s.service = service.New(catalog, registry, validator,
		service.Limits{TotalStudents: 10, MaxPreferences: 2},
		service.WithMetrics(metrics.New(reg)),
	)
	for i, r := range store.SeedRecords {
		_, err := s.service.Preregister(ctx, r.RegNumber, i+1)
		s.Require().NoError(err)
	}
	_, err = s.service.Register(ctx, service.RegisterRequest{
		Input: verification.RegistrationInput{
			RegNumber:   "AB123",
			Name:        "Asha",
			Rank:        7,
			DateOfBirth: "01-02-2005",
			NationalID:  "1111-2222-3333",
		},
		Preferences: []models.Preference{
			{College: 1, Branch: models.BranchECE},
			{College: 0, Branch: models.BranchCSE},
		},
	})
	s.Require().NoError(err)

	s.router = NewRouter(NewHandler(s.service, nil), reg)
}

func (s *RouterSuite) get(path string) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, http.MethodGet, path)
}

func (s *RouterSuite) TestStudents() {
	rec := s.get("/students")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("application/json", rec.Header().Get("Content-Type"))

	body := testutil.DecodeJSON[[]studentResponse](s.T(), rec)
	s.Require().Len(body, 6)
	s.Equal("DC101", body[0].RegNumber)
	s.Equal("AB123", body[5].RegNumber)
	s.Equal([]preferenceResponse{{College: "Beta", Branch: "ECE"}, {College: "Alpha", Branch: "CSE"}}, body[5].Preferences)
	s.Equal("not_allocated", body[5].Status)
	s.Equal(models.CollegeNotAllocated, body[5].College)
	s.Equal(models.BranchNone, body[5].Branch)
}

func (s *RouterSuite) TestStudent() {
	s.Run("allocated student", func() {
		s.service.Allocate(context.Background())

		rec := s.get("/students/AB123")
		s.Require().Equal(http.StatusOK, rec.Code)
		body := testutil.DecodeJSON[studentResponse](s.T(), rec)
		s.Equal("allocated", body.Status)
		s.Equal("Beta", body.College)
		s.Equal("ECE", body.Branch)
	})

	s.Run("unknown student", func() {
		rec := s.get("/students/ZZ999")
		s.Equal(http.StatusNotFound, rec.Code)
		body := testutil.DecodeJSON[map[string]string](s.T(), rec)
		s.Equal("not_found", body["error"])
	})
}

func (s *RouterSuite) TestStudentByRank() {
	s.Run("known rank", func() {
		rec := s.get("/ranks/7")
		s.Require().Equal(http.StatusOK, rec.Code)
		body := testutil.DecodeJSON[studentResponse](s.T(), rec)
		s.Equal("AB123", body.RegNumber)
		s.Equal(7, body.Rank)
	})

	s.Run("free rank", func() {
		rec := s.get("/ranks/6")
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("not a rank", func() {
		for _, path := range []string{"/ranks/abc", "/ranks/0"} {
			rec := s.get(path)
			s.Equal(http.StatusBadRequest, rec.Code, path)
			body := testutil.DecodeJSON[map[string]string](s.T(), rec)
			s.Equal("invalid_input", body["error"])
		}
	})
}

func (s *RouterSuite) TestColleges() {
	rec := s.get("/colleges")
	s.Require().Equal(http.StatusOK, rec.Code)

	body := testutil.DecodeJSON[[]collegeResponse](s.T(), rec)
	s.Require().Len(body, 2)
	s.Equal("Alpha", body[0].Name)
	s.Equal(map[string]int{"CSE": 1, "ECE": 1}, body[0].Capacity)
	s.Equal(1, body[0].PreferenceCount)
	s.Equal(1, body[1].PreferenceCount)
}

func (s *RouterSuite) TestStatus() {
	rec := s.get("/status")
	s.Require().Equal(http.StatusOK, rec.Code)

	body := testutil.DecodeJSON[statusResponse](s.T(), rec)
	s.Equal(6, body.Students)
	s.Equal(1, body.Transitions)
	s.Equal([]routeResponse{{From: "Beta", To: "Alpha", Count: 1}}, body.Routes)
	s.Len(body.Colleges, 2)
	s.Require().Len(body.RecentOperations, 5)
	s.Equal("Enqueued student with rank 7", body.RecentOperations[0].Message)
	s.NotEmpty(body.RecentOperations[0].ID)
}

func (s *RouterSuite) TestMetrics() {
	rec := s.get("/metrics")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.True(strings.Contains(rec.Body.String(), "admission_students_registered_total 6"), rec.Body.String())
}

func (s *RouterSuite) TestRequestID() {
	rec := s.get("/status")
	s.NotEmpty(rec.Header().Get(requestlog.HeaderRequestID))
}

func (s *RouterSuite) TestReadOnly() {
	rec := testutil.DoRequest(s.router, http.MethodPost, "/students")
	s.Equal(http.StatusMethodNotAllowed, rec.Code)
}
