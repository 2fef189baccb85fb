package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message, safe to show to the user.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// Is reports whether err is, or wraps, an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap converts any error into an AppError. AppErrors pass through unchanged,
// anything else becomes an internal error carrying the original as its cause.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// --- Preview lifecycle ---

// NoSourceOrSink reports a pipeline that cannot be previewed.
func NoSourceOrSink() *AppError {
	return &AppError{
		Code: ErrCodeNoSourceOrSink, Message: "Preview requires at least one source and one sink stage.",
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
	}
}

// SubmissionFailed wraps a backend rejection. The message is the
// service-provided text, surfaced verbatim.
func SubmissionFailed(message string, cause error) *AppError {
	if message == "" {
		message = "Preview submission was rejected."
	}
	return &AppError{
		Code: ErrCodeSubmissionFailed, Message: message,
		HTTPStatus: http.StatusBadGateway, Retryable: false, Cause: cause,
	}
}

// PollFailed wraps a transport failure while polling a run.
func PollFailed(runID string, cause error) *AppError {
	msg := "Pipeline preview failed"
	if cause != nil {
		msg = "Pipeline preview failed : " + rootMessage(cause)
	}
	return &AppError{
		Code: ErrCodePollFailed, Message: msg,
		HTTPStatus: http.StatusBadGateway, Retryable: false, Cause: cause,
		Details: map[string]any{"run_id": runID},
	}
}

// StopFailed wraps a failed stop request.
func StopFailed(runID string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStopFailed, Message: "Failed to stop the pipeline preview.",
		HTTPStatus: http.StatusBadGateway, Retryable: false, Cause: cause,
		Details: map[string]any{"run_id": runID},
	}
}

// PreviewBusy reports a submit attempted while another run is active.
func PreviewBusy(state string) *AppError {
	return &AppError{
		Code: ErrCodePreviewBusy, Message: "A preview is already in progress.",
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"state": state},
	}
}

// PreviewDisabled reports that previews are turned off.
func PreviewDisabled() *AppError {
	return &AppError{
		Code: ErrCodePreviewDisabled, Message: "Preview is not enabled for this studio.",
		HTTPStatus: http.StatusForbidden, Retryable: false,
	}
}

// --- Import ---

// NotJSON reports an uploaded file without a .json name.
func NotJSON(filename string) *AppError {
	return &AppError{
		Code: ErrCodeNotJSON, Message: "Pipeline configuration should be JSON.",
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"filename": filename},
	}
}

// MalformedInput reports text that could not be parsed.
func MalformedInput(cause error) *AppError {
	return &AppError{
		Code: ErrCodeMalformedInput, Message: "Syntax Error. Ill-formed pipeline configuration.",
		HTTPStatus: http.StatusBadRequest, Retryable: false, Cause: cause,
	}
}

// InvalidSchema reports a structurally invalid pipeline document.
func InvalidSchema(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidSchema, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// UnknownArtifact reports which artifact fields did not match a known artifact.
func UnknownArtifact(fields []string) *AppError {
	return &AppError{
		Code:       ErrCodeUnknownArtifact,
		Message:    fmt.Sprintf("Imported pipeline has invalid artifact information: %s.", strings.Join(fields, ", ")),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details:    map[string]any{"fields": fields},
	}
}

// --- Common Error Constructors ---

// ConnectionFailed creates a new AppError for a failed connection to a service.
func ConnectionFailed(service string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s. Please verify the service is running.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// Timeout creates a new AppError for a request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// Unauthorized creates a new AppError for unauthorized access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// RateLimited creates a new AppError for a request rejected by a rate limiter.
func RateLimited() *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Too many requests. Please slow down.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error. Please try again.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}

// rootMessage prefers the message of an AppError in the chain over the
// fully decorated Error() string.
func rootMessage(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
