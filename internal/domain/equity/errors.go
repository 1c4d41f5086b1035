package equity

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Field keys used in ErrorMap
const (
	FieldName           = "name"
	FieldNationalID     = "nationalId"
	FieldContact        = "contact"
	FieldAddress        = "address"
	FieldInvestedAmount = "investedAmount"
)

// DuplicateMessage is reported against nationalId or contact when another
// shareholder of the pool already uses the value
const DuplicateMessage = "Already registered to another shareholder"

// Equity domain errors
var (
	ErrFieldValidation     = shared.NewDomainError("VALIDATION_FAILED", "One or more fields are invalid")
	ErrCapacityExceeded    = shared.NewDomainError("CAPACITY_EXCEEDED", "Invested amount exceeds the remaining pool capacity")
	ErrDuplicateConstraint = shared.NewDomainError("DUPLICATE_CONSTRAINT", "National ID or contact is already in use")
)

// ErrorMap collects validation messages keyed by field
type ErrorMap map[string][]string

// Add appends a message for a field
func (m ErrorMap) Add(field, message string) {
	m[field] = append(m[field], message)
}

// Has reports whether a field has any message
func (m ErrorMap) Has(field string) bool {
	return len(m[field]) > 0
}

// HasErrors reports whether any field failed
func (m ErrorMap) HasErrors() bool {
	return len(m) > 0
}

// Fields returns the failed field names in sorted order
func (m ErrorMap) Fields() []string {
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// ErrorKind tags the variant of a MutationError
type ErrorKind string

const (
	KindFieldValidation     ErrorKind = "FieldValidation"
	KindCapacityExceeded    ErrorKind = "CapacityExceeded"
	KindDuplicateConstraint ErrorKind = "DuplicateConstraint"
	KindNotFound            ErrorKind = "NotFound"
)

// MutationError is the recoverable rejection of a create, update or delete.
// Fields always holds every violated constraint found, not only the first.
type MutationError struct {
	Kind              ErrorKind
	Fields            ErrorMap
	RemainingCapacity *decimal.Decimal
	ShareholderID     *uuid.UUID
	cause             error
}

// Error implements the error interface
func (e *MutationError) Error() string {
	var b strings.Builder
	b.WriteString(e.sentinel().Message)
	if e.Kind == KindNotFound && e.ShareholderID != nil {
		fmt.Fprintf(&b, ": shareholder %s", e.ShareholderID)
	}
	for _, f := range e.Fields.Fields() {
		fmt.Fprintf(&b, "; %s: %s", f, strings.Join(e.Fields[f], ", "))
	}
	return b.String()
}

// Code returns the stable error code of the variant
func (e *MutationError) Code() string {
	return e.sentinel().Code
}

// Unwrap exposes the variant sentinel and the underlying cause, if any
func (e *MutationError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.sentinel(), e.cause}
	}
	return []error{e.sentinel()}
}

func (e *MutationError) sentinel() *shared.DomainError {
	switch e.Kind {
	case KindCapacityExceeded:
		return ErrCapacityExceeded
	case KindDuplicateConstraint:
		return ErrDuplicateConstraint
	case KindNotFound:
		return shared.ErrNotFound
	default:
		return ErrFieldValidation
	}
}

// NewFieldValidationError creates a rejection for format or length failures
func NewFieldValidationError(fields ErrorMap) *MutationError {
	return &MutationError{Kind: KindFieldValidation, Fields: fields}
}

// NewCapacityExceededError creates a rejection for an amount above the remaining capacity
func NewCapacityExceededError(remaining decimal.Decimal, fields ErrorMap) *MutationError {
	if fields == nil {
		fields = ErrorMap{}
	}
	if !fields.Has(FieldInvestedAmount) {
		fields.Add(FieldInvestedAmount, capacityMessage(remaining))
	}
	return &MutationError{Kind: KindCapacityExceeded, Fields: fields, RemainingCapacity: &remaining}
}

// NewDuplicateConstraintError creates a rejection for a national ID or contact already in use
func NewDuplicateConstraintError(fields ErrorMap, cause error) *MutationError {
	return &MutationError{Kind: KindDuplicateConstraint, Fields: fields, cause: cause}
}

// NewNotFoundError creates a rejection for an unknown shareholder
func NewNotFoundError(id uuid.UUID) *MutationError {
	return &MutationError{Kind: KindNotFound, Fields: ErrorMap{}, ShareholderID: &id}
}

// AsMutationError extracts a MutationError from an error chain
func AsMutationError(err error) (*MutationError, bool) {
	var me *MutationError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}

func capacityMessage(remaining decimal.Decimal) string {
	return fmt.Sprintf("Exceeds remaining capacity of %s", decimal.Max(remaining, decimal.Zero).StringFixed(2))
}
