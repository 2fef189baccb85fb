// Package errors provides the structured error type shared by every
// pipestudio package.
//
// Each failure carries a machine-readable code, a user-facing message that
// can be shown verbatim in a notification, the HTTP status the control API
// should answer with, and optional details (for example the artifact fields
// that failed to match on import).
package errors
