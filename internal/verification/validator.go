// Package verification validates identity input formats and defines the
// records held by the identity registry.
package verification

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	dErrors "admission/pkg/domain-errors"
)

var (
	regNumberPattern  = regexp.MustCompile(`^[A-Z]{2}[0-9]{3}$`)
	nationalIDPattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{4}-[0-9]{4}$`)
)

// RegistrationInput is the raw identity data captured for a new student.
type RegistrationInput struct {
	RegNumber   string `validate:"required,regnumber"`
	Name        string `validate:"required,max=49"`
	Rank        int    `validate:"gte=1"`
	DateOfBirth string `validate:"required,pastdate"`
	NationalID  string `validate:"required,nationalid"`
}

// Validator checks the fixed textual formats. The core trusts its verdicts
// and never re-validates.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*Validator)

// WithClock overrides the reference time for "in the past" checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.mustRegister("regnumber", func(fl validator.FieldLevel) bool {
		return regNumberPattern.MatchString(fl.Field().String())
	})
	v.mustRegister("nationalid", func(fl validator.FieldLevel) bool {
		return nationalIDPattern.MatchString(fl.Field().String())
	})
	v.mustRegister("pastdate", func(fl validator.FieldLevel) bool {
		return v.isPastDate(fl.Field().String())
	})
	return v
}

// mustRegister panics when a custom tag cannot be registered; that only
// happens for an empty tag or nil func.
func (v *Validator) mustRegister(tag string, fn validator.Func) {
	if err := v.validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// isPastDate accepts a calendar-valid DD-MM-YYYY date strictly before today.
func (v *Validator) isPastDate(s string) bool {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return false
	}
	now := v.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return d.Before(today)
}

// ValidRegNumber reports whether s is two uppercase letters followed by three digits.
func (v *Validator) ValidRegNumber(s string) bool {
	return v.validate.Var(s, "required,regnumber") == nil
}

// ValidDateOfBirth reports whether s is a real DD-MM-YYYY date in the past.
func (v *Validator) ValidDateOfBirth(s string) bool {
	return v.validate.Var(s, "required,pastdate") == nil
}

// ValidNationalID reports whether s has the XXXX-XXXX-XXXX digit layout.
func (v *Validator) ValidNationalID(s string) bool {
	return v.validate.Var(s, "required,nationalid") == nil
}

// ValidateRegistration checks every field of in and reports the failing ones.
func (v *Validator) ValidateRegistration(in RegistrationInput) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "registration validation failed")
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
}

// ValidatePreferenceCount checks that n lies in [1, maxPreferences].
func (v *Validator) ValidatePreferenceCount(n, maxPreferences int) error {
	if err := v.validate.Var(n, fmt.Sprintf("min=1,max=%d", maxPreferences)); err != nil {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("between 1 and %d preferences are required, got %d", maxPreferences, n))
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "regnumber":
		return "registration number must be two letters followed by three digits (e.g. DC101)"
	case "pastdate":
		return "date of birth must be a valid DD-MM-YYYY date in the past"
	case "nationalid":
		return "national ID must be in XXXX-XXXX-XXXX format"
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be %s or higher", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
