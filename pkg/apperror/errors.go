// Package apperror provides a structured way to handle application errors
// with specific codes, severity levels, and additional details, so that
// every failure crossing a component boundary is a typed outcome rather
// than a bare string or a panic.
package apperror

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific application error code.
type ErrorCode string

const (
	// Dataset validation
	CodeNoPlants            ErrorCode = "NO_PLANTS"
	CodeNoRoutes            ErrorCode = "NO_ROUTES"
	CodeNoPeriods           ErrorCode = "NO_PERIODS"
	CodeMissingCapacity     ErrorCode = "MISSING_PRODUCTION_CAPACITY"
	CodeMissingCost         ErrorCode = "MISSING_PRODUCTION_COST"
	CodeNegativeQuantity    ErrorCode = "NEGATIVE_QUANTITY"
	CodeSBQExceedsCapacity  ErrorCode = "SBQ_EXCEEDS_CAPACITY"
	CodeInventoryOverflow   ErrorCode = "INITIAL_INVENTORY_OVERFLOW"
	CodeSafetyStockOverflow ErrorCode = "SAFETY_STOCK_OVERFLOW"
	CodeDemandExceedsSupply ErrorCode = "DEMAND_EXCEEDS_SUPPLY"
	CodeNoInboundRoute      ErrorCode = "NO_INBOUND_ROUTE"
	CodeDuplicateRoute      ErrorCode = "DUPLICATE_ROUTE"
	CodeUnknownPlant        ErrorCode = "UNKNOWN_PLANT"

	// Scenario configuration
	CodeNoScenarios          ErrorCode = "NO_SCENARIOS"
	CodeDuplicateScenario    ErrorCode = "DUPLICATE_SCENARIO"
	CodeNegativeProbability  ErrorCode = "NEGATIVE_PROBABILITY"
	CodeNegativeMultiplier   ErrorCode = "NEGATIVE_MULTIPLIER"
	CodeProbabilityNotNormal ErrorCode = "PROBABILITY_NOT_NORMALIZED"

	// Model construction
	CodeEmptyModel      ErrorCode = "EMPTY_MODEL"
	CodeInvalidBounds   ErrorCode = "INVALID_BOUNDS"
	CodeEmptyConstraint ErrorCode = "EMPTY_CONSTRAINT"

	// Solver
	CodeUnknownBackend     ErrorCode = "UNKNOWN_BACKEND"
	CodeSolverNotAvailable ErrorCode = "SOLVER_NOT_AVAILABLE"
	CodeInfeasible         ErrorCode = "INFEASIBLE"
	CodeSolverError        ErrorCode = "SOLVER_ERROR"
	CodeTimeout            ErrorCode = "TIMEOUT"

	// Storage / runs
	CodeRunNotFound   ErrorCode = "RUN_NOT_FOUND"
	CodeRunNotSolved  ErrorCode = "RUN_NOT_SOLVED"
	CodeStorageError  ErrorCode = "STORAGE_ERROR"
	CodeExportError   ErrorCode = "EXPORT_ERROR"
	CodeAnalyticsSkip ErrorCode = "ANALYTICS_SKIPPED"

	// General
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeNilInput        ErrorCode = "NIL_INPUT"
)

// Severity defines the criticality level of an error.
type Severity int

const (
	// SeverityWarning indicates a non-critical issue that can be ignored or automatically resolved.
	SeverityWarning Severity = iota
	// SeverityError indicates a standard error that requires attention.
	SeverityError
	// SeverityCritical indicates a severe error that might require immediate human intervention.
	SeverityCritical
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is a custom error type that includes an ErrorCode, message,
// an optional field, additional details, an underlying cause, and a severity level.
type Error struct {
	Code     ErrorCode      // Code is a unique identifier for the type of error.
	Message  string         // Message is a human-readable description of the error.
	Field    string         // Field indicates which input field caused the error, if applicable.
	Details  map[string]any // Details provides additional structured information about the error.
	Cause    error          // Cause is the underlying error that triggered this application error.
	Severity Severity       // Severity indicates the criticality level of the error.
}

// Error implements the error interface, returning a string representation of the error.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, allowing for error chain introspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new application error with SeverityError.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Severity: SeverityError,
	}
}

// Newf creates a new application error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// NewWithField creates a new application error tied to a specific input field.
func NewWithField(code ErrorCode, message, field string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Field:    field,
		Severity: SeverityError,
	}
}

// NewWarning creates a new application error with SeverityWarning.
func NewWarning(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Severity: SeverityWarning,
	}
}

// Wrap wraps an existing error with an application error code and message.
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Cause:    err,
		Severity: SeverityError,
	}
}

// WithDetails attaches structured details to the error and returns it.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// Is checks whether err carries the given application error code.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the ErrorCode from an error. If the error is not an *Error,
// it returns CodeInternal.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsWarning checks if the given error is an application error with SeverityWarning.
func IsWarning(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityWarning
	}
	return false
}

// IsCritical checks if the given error is an application error with SeverityCritical.
func IsCritical(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityCritical
	}
	return false
}

// ValidationErrors is a collection of application errors and warnings,
// typically used for aggregating results of multiple validation checks.
type ValidationErrors struct {
	Errors   []*Error // Errors contains all collected errors (SeverityError and SeverityCritical).
	Warnings []*Error // Warnings contains all collected warnings (SeverityWarning).
}

// NewValidationErrors creates and returns a new empty ValidationErrors collection.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors:   make([]*Error, 0),
		Warnings: make([]*Error, 0),
	}
}

// Add appends an *Error to the appropriate slice (Errors or Warnings)
// based on its Severity.
func (v *ValidationErrors) Add(err *Error) {
	if err.Severity == SeverityWarning {
		v.Warnings = append(v.Warnings, err)
	} else {
		v.Errors = append(v.Errors, err)
	}
}

// AddError creates and adds a new application error with SeverityError.
func (v *ValidationErrors) AddError(code ErrorCode, message string) {
	v.Errors = append(v.Errors, New(code, message))
}

// AddWarning creates and adds a new application error with SeverityWarning.
func (v *ValidationErrors) AddWarning(code ErrorCode, message string) {
	v.Warnings = append(v.Warnings, NewWarning(code, message))
}

// AddErrorWithField creates and adds a new application error with a specific field.
func (v *ValidationErrors) AddErrorWithField(code ErrorCode, message, field string) {
	v.Errors = append(v.Errors, NewWithField(code, message, field))
}

// HasErrors returns true if the collection contains any errors (non-warning severity).
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// HasWarnings returns true if the collection contains any warnings.
func (v *ValidationErrors) HasWarnings() bool {
	return len(v.Warnings) > 0
}

// IsValid returns true if the collection contains no errors (warnings do not affect validity).
func (v *ValidationErrors) IsValid() bool {
	return len(v.Errors) == 0
}

// First returns the first error in the collection, or nil when empty.
func (v *ValidationErrors) First() *Error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v.Errors[0]
}
