package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes used across the workflow subsystems.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInvalidState     = "INVALID_STATE"
	CodeValidation       = "VALIDATION_FAILED"
	CodeConflict         = "CONFLICT"
	CodeUpstream         = "UPSTREAM_ERROR"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeAlreadyClosed    = "ALREADY_CLOSED"
	CodeAlreadyAccepted  = "ALREADY_ACCEPTED"
	CodeAlreadyCancelled = "ALREADY_CANCELLED"
	CodeAlreadyAssigned  = "ALREADY_ASSIGNED"
	CodeNotAssigned      = "NOT_ASSIGNED"
	CodeInternal         = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
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
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewInvalidState reports a transition not allowed from the entity's current status.
func NewInvalidState(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidState, message, http.StatusConflict, details)
}

func NewPayloadTooLarge(limit int64) error {
	return NewDomainError(CodePayloadTooLarge, "payload exceeds configured maximum",
		http.StatusRequestEntityTooLarge, map[string]any{"max_bytes": limit})
}

// NewUpstreamError wraps a failed or uninterpretable backend call. Transport
// failures must surface with this code, never as a business rejection.
func NewUpstreamError(message string, err error) error {
	return &DomainError{
		Code:       CodeUpstream,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewIdempotentNoop marks an operation repeated against an already-terminal
// state. The HTTP layer reports these as success without mutating anything.
func NewIdempotentNoop(code, message string) error {
	return NewDomainError(code, message, http.StatusOK, nil)
}

// IsIdempotentNoop reports whether err is a repeat of a terminal transition
// by the same actor. Only errors minted via NewIdempotentNoop qualify; an
// ALREADY_* code carried by a real conflict keeps its conflict status.
func IsIdempotentNoop(err error) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	if domainErr.HTTPStatus != http.StatusOK {
		return false
	}
	switch domainErr.Code {
	case CodeAlreadyClosed, CodeAlreadyAccepted, CodeAlreadyCancelled, CodeAlreadyAssigned:
		return true
	}
	return false
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// CodeOf extracts the machine-stable code, or empty for non-domain errors.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}
