// Package errors provides the standardized error taxonomy for notification dispatch.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeChannelDisabled  ErrorCode = "CHANNEL_DISABLED"
	ErrCodeQuotaExceeded    ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeAdapterFailure   ErrorCode = "ADAPTER_FAILURE"
	ErrCodeTimeout          ErrorCode = "TIMEOUT"
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"

	ErrCodeAppointmentCancelled ErrorCode = "APPOINTMENT_CANCELLED"
	ErrCodeRecipientUnknown     ErrorCode = "RECIPIENT_UNKNOWN"
)

// DispatchError represents a structured dispatch error. Every code except
// INVALID_REQUEST ends up recorded on a failed Notification row rather than
// returned to the caller bare.
type DispatchError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("DispatchError[%s]: %s", e.Code, e.Message)
}

// Reason is the string stored in the Notification error_message column.
func (e *DispatchError) Reason() string {
	if e.Details == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Details)
}

// CodeOf extracts the taxonomy code from err, or ADAPTER_FAILURE when err is
// not a DispatchError.
func CodeOf(err error) ErrorCode {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeAdapterFailure
}

// NewChannelDisabledError creates a non-retryable refusal for a disabled or
// unconfigured channel.
func NewChannelDisabledError(channel string) *DispatchError {
	return &DispatchError{
		Code:      ErrCodeChannelDisabled,
		Message:   "Channel is disabled for this salon",
		Details:   fmt.Sprintf("channel: %s", channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQuotaExceededError creates a refusal for an exhausted daily or monthly quota.
func NewQuotaExceededError(channel string) *DispatchError {
	return &DispatchError{
		Code:      ErrCodeQuotaExceeded,
		Message:   "Send quota exhausted for this salon and channel",
		Details:   fmt.Sprintf("channel: %s", channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError is returned only when an explicit template id was
// requested but is missing or inactive.
func NewTemplateNotFoundError(templateID string) *DispatchError {
	return &DispatchError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Requested template is missing or inactive",
		Details:   fmt.Sprintf("templateId: %s", templateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdapterFailureError wraps an opaque provider error.
func NewAdapterFailureError(channel string, err error) *DispatchError {
	return &DispatchError{
		Code:      ErrCodeAdapterFailure,
		Message:   "Provider send failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError marks an adapter call that exceeded its deadline.
func NewTimeoutError(channel string) *DispatchError {
	return &DispatchError{
		Code:      ErrCodeTimeout,
		Message:   "Provider send timed out",
		Details:   fmt.Sprintf("channel: %s", channel),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError is the only hard precondition failure: it is returned
// synchronously and no Notification row is created.
func NewInvalidRequestError(details string) *DispatchError {
	return &DispatchError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Malformed dispatch request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAppointmentCancelledError marks a reminder whose appointment was cancelled
// between queueing and send.
func NewAppointmentCancelledError(appointmentID string) *DispatchError {
	return &DispatchError{
		Code:      ErrCodeAppointmentCancelled,
		Message:   "Appointment no longer eligible for a reminder",
		Details:   fmt.Sprintf("appointmentId: %s", appointmentID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecipientUnknownError marks a dispatch with no resolvable recipient
// address for the channel.
func NewRecipientUnknownError(channel string) *DispatchError {
	return &DispatchError{
		Code:      ErrCodeRecipientUnknown,
		Message:   "No recipient address on file for channel",
		Details:   fmt.Sprintf("channel: %s", channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
