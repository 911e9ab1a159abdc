package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"admission/internal/admission/models"
	"admission/internal/admission/service"
	"admission/internal/verification"
	"admission/internal/verification/store"
)

// ConsoleSuite drives the menu with scripted input against a real service.
type ConsoleSuite struct {
	suite.Suite
	service   *service.Service
	validator *verification.Validator
	out       *bytes.Buffer
}

func TestConsoleSuite(t *testing.T) {
	suite.Run(t, new(ConsoleSuite))
}

func (s *ConsoleSuite) SetupTest() {
	s.setup(10, store.DefaultCapacity)
}

func (s *ConsoleSuite) setup(total, registryCapacity int) {
	ctx := context.Background()
	catalog, err := models.NewCatalog([]string{"Alpha", "Beta"}, 4)
	s.Require().NoError(err)
	registry := store.New(registryCapacity)
	s.Require().NoError(store.Seed(ctx, registry))

	s.validator = verification.NewValidator(verification.WithClock(func() time.Time {
		return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	}))
	s.service = service.New(catalog, registry, s.validator,
		service.Limits{TotalStudents: total, MaxPreferences: 2})
	for i, r := range store.SeedRecords {
		_, err := s.service.Preregister(ctx, r.RegNumber, i+1)
		s.Require().NoError(err)
	}
	s.out = &bytes.Buffer{}
}

func (s *ConsoleSuite) run(script ...string) string {
	return s.runContext(context.Background(), script...)
}

func (s *ConsoleSuite) runContext(ctx context.Context, script ...string) string {
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	c := New(s.service, s.validator, in, NewPresenter(s.out, false))
	s.Require().NoError(c.Run(ctx))
	return s.out.String()
}

func (s *ConsoleSuite) TestStartupAndExit() {
	out := s.run("7")

	s.Contains(out, "Maximum preferences per student: 2")
	s.Contains(out, "Initial Seat Distribution:")
	s.Contains(out, "Alpha: CSE=1, ECE=1")
	s.Contains(out, "Beta: CSE=1, ECE=1")
	s.Contains(out, "Thank you for using the admission system!")
	s.NotContains(out, "\033[", "colors disabled")
}

func (s *ConsoleSuite) TestEndOfInputExits() {
	out := s.run()
	s.Contains(out, "Please enter your choice (1-7): ")
}

func (s *ConsoleSuite) TestCancelledContextExits() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := s.runContext(ctx, "1")
	s.NotContains(out, "New Student Registration")
}

func (s *ConsoleSuite) TestInvalidMenuInput() {
	out := s.run("abc", "9", "7")
	s.Contains(out, "Invalid input! Please enter a number.")
	s.Contains(out, "Invalid choice! Please enter a number between 1 and 7.")
}

func (s *ConsoleSuite) TestRegisterWithReprompts() {
	out := s.run(
		"1",
		"bad", "DC101", "AB123",
		"", "Asha",
		"x", "1", "7",
		"99-99-2000", "01-02-2005",
		"1234", "1111-2222-3333",
		"0", "4", "1",
		"2",
		"7",
	)

	s.Contains(out, "Registration number must be two uppercase letters and three digits")
	s.Contains(out, "Registration Number DC101 already exists!")
	s.Contains(out, "Name must be between 1 and 49 characters!")
	s.Contains(out, "Please enter a valid rank number!")
	s.Contains(out, "Rank 1 is already taken!")
	s.Contains(out, "Invalid DOB format or invalid date")
	s.Contains(out, "Invalid national ID format")
	s.Contains(out, "Invalid choice! Please enter a number between 1 and 4.")
	s.Contains(out, "Selected: Beta - ECE")
	s.Contains(out, "Selected: Alpha - CSE")
	s.Contains(out, "Student added successfully!")
	s.Contains(out, "AB123")

	st, err := s.service.Student(context.Background(), "AB123")
	s.Require().NoError(err)
	s.Equal(7, st.Rank)
	s.True(st.Verified)
	s.Equal([]models.Preference{
		{College: 1, Branch: models.BranchECE, Weight: 1},
		{College: 0, Branch: models.BranchCSE, Weight: 2},
	}, st.Preferences)
}

func (s *ConsoleSuite) TestRegisterRejectedByService() {
	// The registry holds only the five seeded identities.
	s.setup(10, len(store.SeedRecords))
	out := s.run("1", "AB123", "Asha", "7", "01-02-2005", "1212-3434-5656", "1", "2", "7")

	s.Contains(out, "Error: could not add to verification data, maximum limit reached")
	s.NotContains(out, "Student added successfully!")
	_, err := s.service.Student(context.Background(), "AB123")
	s.Error(err)
}

func (s *ConsoleSuite) TestRegisterRepromptsTakenNationalID() {
	out := s.run("1", "XY123", "Zed", "9", "01-01-2000", "1111-1111-1111", "9999-8888-7777", "1", "2", "7")

	s.Contains(out, "Error: National ID 1111-1111-1111 already registered!")
	s.NotContains(out, "national ID 1111-1111-1111 already registered")
	s.Contains(out, "Student added successfully!")

	st, err := s.service.Student(context.Background(), "XY123")
	s.Require().NoError(err)
	s.Equal(9, st.Rank)
	taken, err := s.service.NationalIDTaken(context.Background(), "9999-8888-7777")
	s.Require().NoError(err)
	s.True(taken)
}

func (s *ConsoleSuite) TestRegisterWhenFull() {
	s.setup(5, store.DefaultCapacity)
	out := s.run("1", "7")
	s.Contains(out, "Maximum number of students (5) reached!")
	s.NotContains(out, "New Student Registration")
}

func (s *ConsoleSuite) TestAllocateAndList() {
	ctx := context.Background()
	_, err := s.service.Register(ctx, service.RegisterRequest{
		Input: verification.RegistrationInput{
			RegNumber: "AB123", Name: "Asha", Rank: 7,
			DateOfBirth: "01-02-2005", NationalID: "1111-2222-3333",
		},
		Preferences: []models.Preference{{College: 0, Branch: models.BranchCSE}},
	})
	s.Require().NoError(err)

	out := s.run("4", "2", "3", "7")

	s.Contains(out, "Processing seat allocation...")
	s.Contains(out, "Allocated: 1, Not allocated: 5, Not eligible: 0")
	s.Contains(out, "Allocation complete! View all students to see results.")
	s.Regexp(`AB123\s+Asha\s+7\s+Alpha\s+CSE`, out)
	s.Regexp(`DC101\s+A\s+1\s+Not Allocated\s+NA`, out)
	s.Regexp(`1\s+Alpha\s+CSE\s+0`, out)
}

func (s *ConsoleSuite) TestUpdatePreferences() {
	s.Run("confirmed", func() {
		out := s.run("5", "DC102", "02-02-2006", "2222-2222-2222", "y", "2", "3", "7")

		s.Contains(out, "Name: B")
		s.Contains(out, "No preferences recorded.")
		s.Contains(out, "Preferences updated successfully!")
		st, err := s.service.Student(context.Background(), "DC102")
		s.Require().NoError(err)
		s.Equal([]models.Preference{
			{College: 0, Branch: models.BranchECE, Weight: 1},
			{College: 1, Branch: models.BranchCSE, Weight: 2},
		}, st.Preferences)
	})

	s.Run("cancelled", func() {
		s.out.Reset()
		out := s.run("5", "DC102", "02-02-2006", "2222-2222-2222", "n", "7")

		s.Contains(out, "1. Alpha - ECE")
		s.Contains(out, "Preferences update cancelled.")
		st, err := s.service.Student(context.Background(), "DC102")
		s.Require().NoError(err)
		s.Len(st.Preferences, 2)
	})

	s.Run("wrong date of birth stops before the national ID", func() {
		s.out.Reset()
		out := s.run("5", "DC102", "01-01-2006", "7")
		s.Contains(out, "Error: verification failed: invalid date of birth")
		s.NotContains(out, "Enter National ID")
		s.Contains(out, "Thank you for using the admission system!")
	})

	s.Run("wrong national ID", func() {
		s.out.Reset()
		out := s.run("5", "DC102", "02-02-2006", "2222-2222-2223", "7")
		s.Contains(out, "Error: verification failed: invalid national ID")
		s.NotContains(out, "Do you want to update your preferences?")
	})

	s.Run("unknown student", func() {
		s.out.Reset()
		out := s.run("5", "ZZ999", "7")
		s.Contains(out, "Student with registration number ZZ999 not found!")
	})
}

func (s *ConsoleSuite) TestSystemStatus() {
	out := s.run("6", "7")

	s.Contains(out, "Students: 5, preference transitions: 0")
	s.Contains(out, "Alpha: 0 preferences")
	s.Contains(out, "- Enqueued student with rank 5")
	s.Contains(out, "- Enqueued student with rank 1")
	s.NotContains(out, "- Queue initialized")
}

func (s *ConsoleSuite) TestSystemStatus_Transitions() {
	_, err := s.service.Register(context.Background(), service.RegisterRequest{
		Input: verification.RegistrationInput{
			RegNumber: "AB123", Name: "Asha", Rank: 7,
			DateOfBirth: "01-02-2005", NationalID: "1111-2222-3333",
		},
		Preferences: []models.Preference{
			{College: 0, Branch: models.BranchCSE},
			{College: 1, Branch: models.BranchECE},
		},
	})
	s.Require().NoError(err)

	out := s.run("6", "7")
	s.Contains(out, "Preference Transitions:")
	s.Contains(out, "Alpha -> Beta: 1")
}

func (s *ConsoleSuite) TestColorOutput() {
	p := NewPresenter(s.out, true)
	p.Error("boom")
	s.Equal(colorRed+"boom"+colorReset+"\n", s.out.String())
}
