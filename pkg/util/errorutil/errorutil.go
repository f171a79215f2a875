package errorutil

import (
	"errors"
	"fmt"
	"strings"
)

// Kind groups errors by how the command boundary reports them.
type Kind string

const (
	KindValidation  Kind = "VALIDATION"
	KindAuth        Kind = "AUTH"
	KindConflict    Kind = "CONFLICT"
	KindNotFound    Kind = "NOT_FOUND"
	KindStore       Kind = "STORE"
	KindUnsupported Kind = "UNSUPPORTED"
)

// Codes shared between services, the session and the shell.
const (
	CodeInvalidArguments    = "INVALID_ARGUMENTS"
	CodeInvalidDate         = "INVALID_DATE"
	CodeInvalidDoseCount    = "INVALID_DOSE_COUNT"
	CodeInvalidID           = "INVALID_ID"
	CodeWeakPassword        = "WEAK_PASSWORD"
	CodeNotLoggedIn         = "NOT_LOGGED_IN"
	CodeAlreadyLoggedIn     = "ALREADY_LOGGED_IN"
	CodePatientRequired     = "PATIENT_REQUIRED"
	CodeCaregiverRequired   = "CAREGIVER_REQUIRED"
	CodeBadCredentials      = "BAD_CREDENTIALS"
	CodeUsernameTaken       = "USERNAME_TAKEN"
	CodeNoAvailability      = "NO_AVAILABILITY"
	CodeInsufficientDoses   = "INSUFFICIENT_DOSES"
	CodeVaccineNotFound     = "VACCINE_NOT_FOUND"
	CodeAppointmentNotFound = "APPOINTMENT_NOT_FOUND"
	CodeStoreError          = "STORE_ERROR"
	CodeUnsupported         = "UNSUPPORTED"
)

// DomainError standardizes application errors.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(kind Kind, code, message string, details map[string]any) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message, Details: details}
}

func NewValidationError(code, message string, details map[string]any) error {
	return NewDomainError(KindValidation, code, message, details)
}

func NewUnauthorized(code, message string) error {
	return NewDomainError(KindAuth, code, message, nil)
}

func NewConflict(code, message string, details map[string]any) error {
	return NewDomainError(KindConflict, code, message, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Kind:    KindNotFound,
		Code:    strings.ToUpper(resource) + "_NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Details: details,
	}
}

func NewUnsupported(message string) error {
	return NewDomainError(KindUnsupported, CodeUnsupported, message, nil)
}

func NewStoreError(err error) error {
	return &DomainError{
		Kind:    KindStore,
		Code:    CodeStoreError,
		Message: "store error",
		Err:     err,
	}
}

// ToDomainError converts generic errors to DomainError. Anything that is not
// already a DomainError is treated as a store failure.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Kind:    KindStore,
		Code:    CodeStoreError,
		Message: "store error",
		Err:     err,
	}
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	de := ToDomainError(err)
	return de != nil && de.Code == code
}
