package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes surfaced to callers.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeUnknownOffer         = "UNKNOWN_OFFER"
	CodeNotOwner             = "NOT_OWNER"
	CodeConfigurationMissing = "CONFIGURATION_MISSING"
	CodeInternal             = "INTERNAL_ERROR"
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
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
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

// NewUnknownOffer reports an escalation offer that was already consumed, expired or never existed.
func NewUnknownOffer(offerID string) error {
	return NewDomainError(CodeUnknownOffer,
		"This ticket offer is no longer available. Describe your issue again to get a new one.",
		http.StatusGone, map[string]any{"offer_id": offerID})
}

// NewNotOwner reports an escalation attempt by someone other than the offer's owner.
func NewNotOwner(offerID string) error {
	return NewDomainError(CodeNotOwner,
		"Only the person who reported this issue can turn it into a support ticket.",
		http.StatusForbidden, map[string]any{"offer_id": offerID})
}

// NewConfigurationMissing names every required setting absent at startup.
func NewConfigurationMissing(settings []string) error {
	return &DomainError{
		Code:       CodeConfigurationMissing,
		Message:    "missing required settings: " + strings.Join(settings, ", "),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"missing": settings},
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "Sorry, I encountered an error. Please try again or contact support directly.",
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
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
