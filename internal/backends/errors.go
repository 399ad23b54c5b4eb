package backends

import (
	"errors"
	"fmt"
	"strings"

	"image-upscaler/internal/models"
)

// ErrUnavailable matches any BackendUnavailableError via errors.Is.
var ErrUnavailable = errors.New("backend unavailable")

// BackendUnavailableError means the capability is not present or reachable.
type BackendUnavailableError struct {
	Backend models.Capability
	Reason  string
	Err     error
}

func (e *BackendUnavailableError) Error() string {
	msg := fmt.Sprintf("%s unavailable: %s", e.Backend, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

func (e *BackendUnavailableError) Is(target error) bool { return target == ErrUnavailable }

// ProcessingError means the backend ran but could not produce a valid image.
type ProcessingError struct {
	Backend models.Capability
	Op      string
	Err     error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// NetworkError means a remote call failed, timed out or returned a non-success status.
type NetworkError struct {
	Backend    models.Capability
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed with status %d: %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Backend, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AllBackendsFailedError is the only failure that crosses the engine boundary.
type AllBackendsFailedError struct {
	Attempted []models.Capability
	Last      error
}

func (e *AllBackendsFailedError) Error() string {
	names := make([]string, len(e.Attempted))
	for i, name := range e.Attempted {
		names[i] = string(name)
	}
	return fmt.Sprintf("all upscaling backends failed (attempted: %s); last error: %v",
		strings.Join(names, ", "), e.Last)
}

func (e *AllBackendsFailedError) Unwrap() error { return e.Last }

// Unavailable builds a BackendUnavailableError for adapters in sub-packages.
func Unavailable(backend models.Capability, reason string, err error) error {
	return &BackendUnavailableError{Backend: backend, Reason: reason, Err: err}
}

// Processing builds a ProcessingError for adapters in sub-packages.
func Processing(backend models.Capability, op string, err error) error {
	return &ProcessingError{Backend: backend, Op: op, Err: err}
}

// Network builds a NetworkError for adapters in sub-packages.
func Network(backend models.Capability, status int, err error) error {
	return &NetworkError{Backend: backend, StatusCode: status, Err: err}
}
