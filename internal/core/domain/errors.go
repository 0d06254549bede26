package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested remote resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAuthTimeout indicates the device-code flow expired before the
	// user completed interactive sign-in. The whole flow must be retried.
	ErrAuthTimeout = errors.New("device code expired before sign-in completed")

	// ErrAuthDenied indicates the user declined the device-code sign-in.
	ErrAuthDenied = errors.New("sign-in was declined")
)

// ConfigError reports invalid or missing configuration. It is fatal and
// never retried: misconfiguration is not transient. Problems holds every
// detected issue so the operator can fix all gaps in one pass.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

// NewConfigError creates a ConfigError from one or more problems.
func NewConfigError(problems ...string) *ConfigError {
	return &ConfigError{Problems: problems}
}

// RemoteAPIError reports a non-success response from the resource API.
// Status code and body are carried verbatim so the failure is actionable.
type RemoteAPIError struct {
	Resource   string
	Action     string
	StatusCode int
	Body       string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("%s %s: remote API error %d: %s", e.Action, e.Resource, e.StatusCode, e.Body)
}

// QueryError reports a query-time failure. A QueryResult with zero
// citations is not a QueryError: in ACL mode an empty result is the
// legitimate outcome for a caller with no visible documents.
type QueryError struct {
	StatusCode int
	Body       string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("retrieval query failed with status %d: %s", e.StatusCode, e.Body)
}

// ModeConflictError reports an unsatisfiable combination of ACL mode with
// another setting. It is raised by the definition builders before any
// network call, never discovered from a remote rejection.
type ModeConflictError struct {
	Reason string
}

func (e *ModeConflictError) Error() string {
	return fmt.Sprintf("ACL mode conflict: %s", e.Reason)
}

// IsNotFound checks if the error indicates a missing remote resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *RemoteAPIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsConfig checks if the error is a configuration error.
func IsConfig(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// IsModeConflict checks if the error is an ACL mode conflict.
func IsModeConflict(err error) bool {
	var mcErr *ModeConflictError
	return errors.As(err, &mcErr)
}
