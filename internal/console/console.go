// Package console drives the interactive admission menu over a line-oriented
// reader and writer.
package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"admission/internal/admission/allocation"
	"admission/internal/admission/models"
	"admission/internal/admission/service"
	"admission/internal/verification"
	dErrors "admission/pkg/domain-errors"
)

// MaxNameLength is the longest accepted student name.
const MaxNameLength = 49

// Service is the admission service as seen by the menu.
type Service interface {
	Register(ctx context.Context, req service.RegisterRequest) (*models.Student, error)
	Verify(ctx context.Context, regNumber, dateOfBirth, nationalID string) (*models.Student, error)
	VerifyDateOfBirth(ctx context.Context, regNumber, dateOfBirth string) error
	UpdatePreferences(ctx context.Context, req service.UpdatePreferencesRequest) (*models.Student, error)
	Allocate(ctx context.Context) allocation.Result
	Student(ctx context.Context, regNumber string) (*models.Student, error)
	Students(ctx context.Context) []*models.Student
	RankTaken(ctx context.Context, rank int) bool
	NationalIDTaken(ctx context.Context, nationalID string) (bool, error)
	Colleges(ctx context.Context) []service.CollegeSeats
	Status(ctx context.Context) service.Status
	Catalog() *models.Catalog
	Limits() service.Limits
}

// Console is the menu loop. It is single-actor: one Console per input stream.
type Console struct {
	svc       Service
	validator *verification.Validator
	in        *bufio.Scanner
	out       *Presenter
	logger    *slog.Logger
}

type Option func(*Console)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		c.logger = logger
	}
}

func New(svc Service, validator *verification.Validator, in io.Reader, out *Presenter, opts ...Option) *Console {
	c := &Console{
		svc:       svc,
		validator: validator,
		in:        bufio.NewScanner(in),
		out:       out,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run shows the banner and seat distribution, then serves menu choices until
// the user exits, input ends or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	c.out.Banner()
	limits := c.svc.Limits()
	c.out.Notice("Maximum preferences per student: %d", limits.MaxPreferences)
	c.out.SeatDistribution(c.svc.Colleges(ctx))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		c.out.Menu()
		line, err := c.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		choice, err := strconv.Atoi(line)
		if err != nil {
			c.out.Error("Invalid input! Please enter a number.")
			continue
		}

		switch choice {
		case 1:
			err = c.register(ctx)
		case 2:
			c.out.Students(c.svc.Students(ctx))
		case 3:
			c.out.Colleges(c.svc.Catalog(), c.svc.Colleges(ctx))
		case 4:
			c.out.Notice("Processing seat allocation...")
			c.out.AllocationSummary(c.svc.Allocate(ctx))
		case 5:
			err = c.updatePreferences(ctx)
		case 6:
			c.out.Status(c.svc.Status(ctx))
		case 7:
			c.out.Success("Thank you for using the admission system!")
			return nil
		default:
			c.out.Error("Invalid choice! Please enter a number between 1 and 7.")
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) readLine() (string, error) {
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) ask(label string) (string, error) {
	c.out.Prompt(label)
	return c.readLine()
}

// askUntil re-prompts until check returns an empty complaint.
func (c *Console) askUntil(label string, check func(string) string) (string, error) {
	for {
		answer, err := c.ask(label)
		if err != nil {
			return "", err
		}
		if msg := check(answer); msg != "" {
			c.out.Error("Error: %s", msg)
			continue
		}
		return answer, nil
	}
}

func (c *Console) register(ctx context.Context) error {
	limits := c.svc.Limits()
	if n := len(c.svc.Students(ctx)); limits.TotalStudents > 0 && n >= limits.TotalStudents {
		c.out.Error("Maximum number of students (%d) reached!", limits.TotalStudents)
		return nil
	}

	c.out.Heading("New Student Registration")
	c.out.printf("1. Registration Number Format: two letters and three digits (e.g., DC101)\n")
	c.out.printf("2. Name: Maximum %d characters\n", MaxNameLength)
	c.out.printf("3. Rank: Must be a unique number\n")
	c.out.printf("4. Date of Birth Format: DD-MM-YYYY\n")
	c.out.printf("5. National ID Format: XXXX-XXXX-XXXX\n\n")

	var in verification.RegistrationInput
	var err error

	in.RegNumber, err = c.askUntil("Enter Registration Number (e.g., DC101): ", func(s string) string {
		if !c.validator.ValidRegNumber(s) {
			return "Registration number must be two uppercase letters and three digits (e.g., DC101)!"
		}
		if _, err := c.svc.Student(ctx, s); err == nil {
			return "Registration Number " + s + " already exists!"
		}
		return ""
	})
	if err != nil {
		return err
	}

	in.Name, err = c.askUntil("Enter Student Name: ", func(s string) string {
		if s == "" || utf8.RuneCountInString(s) > MaxNameLength {
			return "Name must be between 1 and " + strconv.Itoa(MaxNameLength) + " characters!"
		}
		return ""
	})
	if err != nil {
		return err
	}

	rank, err := c.askUntil("Enter Rank (1 or higher): ", func(s string) string {
		r, err := strconv.Atoi(s)
		if err != nil || r < 1 {
			return "Please enter a valid rank number!"
		}
		if c.svc.RankTaken(ctx, r) {
			return "Rank " + s + " is already taken!"
		}
		return ""
	})
	if err != nil {
		return err
	}
	in.Rank, _ = strconv.Atoi(rank)

	in.DateOfBirth, err = c.askUntil("Enter Date of Birth (DD-MM-YYYY): ", func(s string) string {
		if !c.validator.ValidDateOfBirth(s) {
			return "Invalid DOB format or invalid date. Use DD-MM-YYYY (e.g., 15-06-2000)"
		}
		return ""
	})
	if err != nil {
		return err
	}

	var lookupErr error
	in.NationalID, err = c.askUntil("Enter National ID (XXXX-XXXX-XXXX): ", func(s string) string {
		if !c.validator.ValidNationalID(s) {
			return "Invalid national ID format. Must be XXXX-XXXX-XXXX with only numbers (e.g., 1234-5678-9012)"
		}
		taken, err := c.svc.NationalIDTaken(ctx, s)
		if err != nil {
			lookupErr = err
			return ""
		}
		if taken {
			return "National ID " + s + " already registered!"
		}
		return ""
	})
	if err != nil {
		return err
	}
	if lookupErr != nil {
		c.report(ctx, "national ID lookup failed", lookupErr)
		return nil
	}

	prefs, err := c.selectPreferences(ctx, in.Name, in.Rank)
	if err != nil {
		return err
	}

	if _, err := c.svc.Register(ctx, service.RegisterRequest{Input: in, Preferences: prefs}); err != nil {
		c.report(ctx, "registration failed", err)
		return nil
	}
	c.out.Success("Student added successfully!")
	return nil
}

// selectPreferences collects exactly MaxPreferences choices by menu number.
func (c *Console) selectPreferences(ctx context.Context, name string, rank int) ([]models.Preference, error) {
	catalog := c.svc.Catalog()
	limits := c.svc.Limits()

	c.out.printf("\n%s\n", c.out.paint(colorYellow, "============ College Preference Selection ============"))
	c.out.printf("Student: %s (Rank: %d)\n", name, rank)
	c.out.printf("You must select exactly %d preferences in order of priority.\n", limits.MaxPreferences)
	c.out.Colleges(catalog, c.svc.Colleges(ctx))

	prefs := make([]models.Preference, 0, limits.MaxPreferences)
	for len(prefs) < limits.MaxPreferences {
		answer, err := c.ask("Enter Priority " + strconv.Itoa(len(prefs)+1) + " Choice (1-" + strconv.Itoa(catalog.Choices()) + "): ")
		if err != nil {
			return nil, err
		}
		choice, convErr := strconv.Atoi(answer)
		if convErr != nil {
			choice = 0
		}
		p, prefErr := catalog.PreferenceForChoice(choice)
		if prefErr != nil {
			c.out.Error("Invalid choice! Please enter a number between 1 and %d.", catalog.Choices())
			continue
		}
		p.Weight = len(prefs) + 1
		prefs = append(prefs, p)
		c.out.printf("Selected: %s - %s\n", catalog.At(p.College).Name, p.Branch)
	}
	return prefs, nil
}

func (c *Console) updatePreferences(ctx context.Context) error {
	c.out.Heading("Update Student Preferences")
	c.out.printf("Please verify your identity\n\n")

	reg, err := c.ask("Enter Registration Number: ")
	if err != nil {
		return err
	}
	if _, err := c.svc.Student(ctx, reg); err != nil {
		c.out.Error("Error: Student with registration number %s not found!", reg)
		return nil
	}
	dob, err := c.ask("Enter Date of Birth (DD-MM-YYYY): ")
	if err != nil {
		return err
	}
	if err := c.svc.VerifyDateOfBirth(ctx, reg, dob); err != nil {
		c.report(ctx, "verification failed", err)
		return nil
	}
	nid, err := c.ask("Enter National ID (XXXX-XXXX-XXXX): ")
	if err != nil {
		return err
	}
	student, err := c.svc.Verify(ctx, reg, dob, nid)
	if err != nil {
		c.report(ctx, "verification failed", err)
		return nil
	}

	c.out.Success("Student Information:")
	c.out.printf("Name: %s\nRank: %d\n\nCurrent Preferences:\n", student.Name, student.Rank)
	c.out.Preferences(c.svc.Catalog(), student.Preferences)

	answer, err := c.ask("\nDo you want to update your preferences? (y/n): ")
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") {
		c.out.Notice("Preferences update cancelled.")
		return nil
	}

	prefs, err := c.selectPreferences(ctx, student.Name, student.Rank)
	if err != nil {
		return err
	}
	_, err = c.svc.UpdatePreferences(ctx, service.UpdatePreferencesRequest{
		RegNumber:   reg,
		DateOfBirth: dob,
		NationalID:  nid,
		Preferences: prefs,
	})
	if err != nil {
		c.report(ctx, "preference update failed", err)
		return nil
	}
	c.out.Success("Preferences updated successfully!")
	return nil
}

// report shows a domain error to the user. Internal errors are logged and
// replaced with a generic message.
func (c *Console) report(ctx context.Context, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		c.logger.ErrorContext(ctx, msg, "error", err)
		c.out.Error("Error: an internal error occurred")
		return
	}
	c.out.Error("Error: %s", dErrors.MessageOf(err))
}
