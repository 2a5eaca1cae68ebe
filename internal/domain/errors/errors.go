// Package errors provides domain-specific error types.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for domain errors.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"

	// Configuration errors: never retried, remediation is an admin action.
	ErrCodeTenantNotFound       = "TENANT_NOT_FOUND"
	ErrCodeCredentialsMissing   = "CREDENTIALS_MISSING"
	ErrCodeCredentialCorruption = "CREDENTIAL_CORRUPTION"

	// Backend errors, split by retryability.
	ErrCodeBackendTransient = "BACKEND_TRANSIENT"
	ErrCodeBackendRejected  = "BACKEND_REJECTED"

	// Integrity errors on the webhook path.
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
)

// DomainError represents a domain-specific error.
type DomainError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Transient  bool   `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, identifier string) *DomainError {
	return &DomainError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Details:    identifier,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeValidation,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUnauthorizedError creates a new unauthorized error.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{
		Code:       ErrCodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeInternal,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewBadRequestError creates a new bad request error.
func NewBadRequestError(message string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeBadRequest,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewTenantNotFoundError indicates the tenant key has no stored configuration.
func NewTenantNotFoundError(tenantKey string) *DomainError {
	return &DomainError{
		Code:       ErrCodeTenantNotFound,
		Message:    "tenant is not configured",
		Details:    tenantKey,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewCredentialsMissingError indicates the tenant's credential bundle is
// absent or incomplete for its selected platform.
func NewCredentialsMissingError(platform string) *DomainError {
	return &DomainError{
		Code:       ErrCodeCredentialsMissing,
		Message:    fmt.Sprintf("%s credentials are missing or incomplete; re-save the tenant configuration", platform),
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewCredentialCorruptionError indicates stored credentials could not be
// decrypted. This usually means the encryption key rotated without the
// tenant data being re-encrypted.
func NewCredentialCorruptionError(tenantKey string, err error) *DomainError {
	return &DomainError{
		Code:       ErrCodeCredentialCorruption,
		Message:    "failed to decrypt tenant credentials; check SECRETS_ENCRYPTION_KEY matches the key used when the tenant was saved, or re-save the tenant to re-encrypt",
		Details:    tenantKey,
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

// NewTransientBackendError wraps a retryable backend failure (429, 5xx, or
// a transport-level error).
func NewTransientBackendError(operation string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeBackendTransient,
		Message:    fmt.Sprintf("%s failed transiently", operation),
		Details:    details,
		HTTPStatus: http.StatusBadGateway,
		Transient:  true,
		Err:        err,
	}
}

// NewPermanentBackendError wraps a backend rejection that must not be retried.
func NewPermanentBackendError(operation string, status int, body string) *DomainError {
	return &DomainError{
		Code:       ErrCodeBackendRejected,
		Message:    fmt.Sprintf("%s rejected by backend (status %d)", operation, status),
		Details:    body,
		HTTPStatus: http.StatusBadGateway,
	}
}

// FromBackendStatus classifies a backend HTTP status per the retry policy:
// 429 and 5xx are transient, every other 4xx is permanent.
func FromBackendStatus(operation string, status int, body string) *DomainError {
	if status == http.StatusTooManyRequests || status >= 500 {
		e := NewTransientBackendError(operation, nil)
		e.Details = fmt.Sprintf("status %d: %s", status, body)
		return e
	}
	return NewPermanentBackendError(operation, status, body)
}

// NewInvalidSignatureError indicates webhook signature verification failed.
func NewInvalidSignatureError(details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeInvalidSignature,
		Message:    "webhook signature verification failed",
		Details:    details,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// IsDomainError checks if the error is a domain error.
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error.
func GetDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	domainErr, ok := GetDomainError(err)
	return ok && (domainErr.Code == ErrCodeNotFound || domainErr.Code == ErrCodeTenantNotFound)
}

// IsTransient reports whether err may be retried under the send policy.
// Unclassified errors (raw transport failures) count as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if domainErr, ok := GetDomainError(err); ok {
		return domainErr.Transient
	}
	return true
}

// IsConfiguration reports whether err is a configuration error: a problem
// an administrator must fix, never worth retrying.
func IsConfiguration(err error) bool {
	domainErr, ok := GetDomainError(err)
	if !ok {
		return false
	}
	switch domainErr.Code {
	case ErrCodeTenantNotFound, ErrCodeCredentialsMissing, ErrCodeCredentialCorruption:
		return true
	}
	return false
}
