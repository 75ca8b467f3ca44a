package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport-level failures (refused, reset, DNS)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout represents a bounded wait that expired
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeHTTP represents a non-2xx response from the collector
	ErrorTypeHTTP ErrorType = "http"
	// ErrorTypeHost represents a failure talking to the document host
	ErrorTypeHost ErrorType = "host"
	// ErrorTypeCooldown represents cooldown store errors
	ErrorTypeCooldown ErrorType = "cooldown"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ReportError represents a failure outside the extraction tiers
type ReportError struct {
	Type      ErrorType
	Component string
	Message   string
	Status    int
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *ReportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *ReportError) Unwrap() error {
	return e.Err
}

// Reason returns the short, user-facing failure description.
func (e *ReportError) Reason() string {
	switch e.Type {
	case ErrorTypeHTTP:
		return fmt.Sprintf("HTTP %d", e.Status)
	case ErrorTypeTimeout:
		return "Timeout"
	case ErrorTypeNetwork:
		return "Network error"
	default:
		return e.Message
	}
}

// IsRetryable returns true if the error is retryable
func (e *ReportError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	case ErrorTypeHTTP:
		return e.Status >= 500 || e.Status == 429
	default:
		return false
	}
}

// New creates a new ReportError
func New(errType ErrorType, component, message string, err error) *ReportError {
	return &ReportError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *ReportError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewTimeout creates a new timeout error
func NewTimeout(component, message string, err error) *ReportError {
	return New(ErrorTypeTimeout, component, message, err)
}

// NewHTTP creates an error for an unexpected response status
func NewHTTP(component string, status int) *ReportError {
	e := New(ErrorTypeHTTP, component, fmt.Sprintf("unexpected status %d", status), nil)
	e.Status = status
	return e
}

// NewHost creates a new document host error
func NewHost(component, message string, err error) *ReportError {
	return New(ErrorTypeHost, component, message, err)
}

// NewCooldown creates a new cooldown store error
func NewCooldown(component, message string, err error) *ReportError {
	return New(ErrorTypeCooldown, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *ReportError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ReportError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// Reason extracts the user-facing failure description from any error.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var re *ReportError
	if stderrors.As(err, &re) {
		return re.Reason()
	}
	return err.Error()
}
