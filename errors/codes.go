package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Preview lifecycle errors
const (
	// ErrCodeNoSourceOrSink indicates the pipeline has no source or no sink stage.
	ErrCodeNoSourceOrSink ErrorCode = "NO_SOURCE_OR_SINK"
	// ErrCodeSubmissionFailed indicates the backend rejected a preview run.
	ErrCodeSubmissionFailed ErrorCode = "SUBMISSION_FAILED"
	// ErrCodePollFailed indicates a transport failure while polling run status.
	ErrCodePollFailed ErrorCode = "POLL_FAILED"
	// ErrCodeStopFailed indicates the backend did not acknowledge a stop request.
	ErrCodeStopFailed ErrorCode = "STOP_FAILED"
	// ErrCodePreviewBusy indicates a preview is already submitting or running.
	ErrCodePreviewBusy ErrorCode = "PREVIEW_BUSY"
	// ErrCodePreviewDisabled indicates preview runs are turned off in config.
	ErrCodePreviewDisabled ErrorCode = "PREVIEW_DISABLED"
)

// Import errors
const (
	// ErrCodeNotJSON indicates an uploaded file is not a JSON document.
	ErrCodeNotJSON ErrorCode = "NOT_JSON"
	// ErrCodeMalformedInput indicates the uploaded text could not be parsed.
	ErrCodeMalformedInput ErrorCode = "MALFORMED_INPUT"
	// ErrCodeInvalidSchema indicates the parsed document has the wrong shape.
	ErrCodeInvalidSchema ErrorCode = "INVALID_SCHEMA"
	// ErrCodeUnknownArtifact indicates the declared artifact is not known.
	ErrCodeUnknownArtifact ErrorCode = "UNKNOWN_ARTIFACT"
)

// Connection/Availability errors (retryable)
const (
	// ErrCodeConnectionFailed indicates a failed connection to a service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Request errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimited indicates the caller exceeded the request rate.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
	ErrCodeExternalService:  true,
	ErrCodeRateLimited:      true,
	// A rejected preview needs a manual re-submit.
	ErrCodeSubmissionFailed: false,
	ErrCodePollFailed:       false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
