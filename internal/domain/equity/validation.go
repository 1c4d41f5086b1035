package equity

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var (
	shareholderNamePattern = regexp.MustCompile(`^[A-Za-z .]+$`)
	nationalIDPattern      = regexp.MustCompile(`^\d{9}[VvXx]$|^\d{12}$`)
	contactPattern         = regexp.MustCompile(`^\d{10}$`)
)

var formatValidator = newFormatValidator()

func newFormatValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "shareholder_name", matchPattern(shareholderNamePattern))
	mustRegister(v, "national_id", matchPattern(nationalIDPattern))
	mustRegister(v, "contact_number", matchPattern(contactPattern))
	mustRegister(v, "decimal_amount", func(fl validator.FieldLevel) bool {
		_, err := decimal.NewFromString(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "cent_precision", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.Equal(d.Round(AmountScale))
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

func matchPattern(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// validationMessage returns a human-readable message for a format failure
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Must be at least " + e.Param() + " characters"
	case "shareholder_name":
		return "Must contain only letters, spaces and dots"
	case "national_id":
		return "Must be 9 digits followed by V or X, or 12 digits"
	case "contact_number":
		return "Must be exactly 10 digits"
	case "decimal_amount":
		return "Must be numeric"
	case "cent_precision":
		return "Must have at most 2 decimal places"
	default:
		return "Invalid value"
	}
}

// ValidationReport is the outcome of validating a candidate
type ValidationReport struct {
	Errors   ErrorMap
	Details  ShareholderDetails
	Snapshot LedgerSnapshot
	Preview  AllocationPreview

	capacityExceeded bool
	duplicate        bool
}

// Valid reports whether no constraint was violated
func (r ValidationReport) Valid() bool {
	return !r.Errors.HasErrors()
}

// Err returns the rejection for an invalid report, or nil.
// The kind is the most specific cause found; Fields carries every violation.
func (r ValidationReport) Err() error {
	switch {
	case r.Valid():
		return nil
	case r.duplicate:
		return NewDuplicateConstraintError(r.Errors, nil)
	case r.capacityExceeded:
		return NewCapacityExceededError(r.Snapshot.RemainingCapacity, r.Errors)
	default:
		return NewFieldValidationError(r.Errors)
	}
}

// ValidationEngine checks a candidate against format, uniqueness and capacity
// rules. Every rule runs; failures are collected rather than returned early.
type ValidationEngine struct {
	calculator AllocationCalculator
	ledger     CapacityLedger
	reader     ShareholderReader
}

// NewValidationEngine creates a validation engine over a shareholder reader
func NewValidationEngine(calculator AllocationCalculator, reader ShareholderReader) *ValidationEngine {
	return &ValidationEngine{
		calculator: calculator,
		ledger:     NewCapacityLedger(calculator.Pool()),
		reader:     reader,
	}
}

// Validate checks candidate; excludeID names the shareholder being edited so
// it is ignored by the uniqueness and capacity checks.
// The error return is reserved for failures reading the repository.
func (e *ValidationEngine) Validate(ctx context.Context, candidate Candidate, excludeID *uuid.UUID) (ValidationReport, error) {
	c := candidate.Normalize()
	pool := e.calculator.Pool()
	report := ValidationReport{Errors: ErrorMap{}}

	if err := formatValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return report, fmt.Errorf("validate shareholder format: %w", err)
		}
		for _, fe := range fieldErrs {
			report.Errors.Add(fe.Field(), validationMessage(fe))
		}
	}

	amount := decimal.Zero
	amountUsable := false
	if !report.Errors.Has(FieldInvestedAmount) {
		amount, _ = decimal.NewFromString(c.InvestedAmount)
		if amount.IsPositive() {
			amountUsable = true
		} else {
			report.Errors.Add(FieldInvestedAmount, "Must be greater than zero")
		}
	}

	holdings, err := e.reader.List(ctx, pool.Code)
	if err != nil {
		return report, fmt.Errorf("read ledger: %w", err)
	}
	report.Snapshot = e.ledger.Snapshot(holdings, excludeID)

	if amountUsable {
		report.Preview = e.calculator.Preview(amount, report.Snapshot)
		if amount.GreaterThan(report.Snapshot.RemainingCapacity) {
			report.Errors.Add(FieldInvestedAmount, capacityMessage(report.Snapshot.RemainingCapacity))
			report.capacityExceeded = true
		}
	}

	if !report.Errors.Has(FieldNationalID) {
		taken, err := isTaken(e.reader.FindByNationalID(ctx, pool.Code, c.NationalID, excludeID))
		if err != nil {
			return report, fmt.Errorf("check national id: %w", err)
		}
		if taken {
			report.Errors.Add(FieldNationalID, DuplicateMessage)
			report.duplicate = true
		}
	}

	if !report.Errors.Has(FieldContact) {
		taken, err := isTaken(e.reader.FindByContact(ctx, pool.Code, c.Contact, excludeID))
		if err != nil {
			return report, fmt.Errorf("check contact: %w", err)
		}
		if taken {
			report.Errors.Add(FieldContact, DuplicateMessage)
			report.duplicate = true
		}
	}

	report.Details = ShareholderDetails{
		Name:           c.Name,
		NationalID:     c.NationalID,
		Contact:        c.Contact,
		Address:        c.Address,
		InvestedAmount: amount,
	}
	return report, nil
}

func isTaken(existing *Shareholder, err error) (bool, error) {
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return existing != nil, nil
}
