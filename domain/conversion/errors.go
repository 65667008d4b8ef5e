package conversion

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrInvalidRequest is matched by every precondition failure raised before a job starts
	ErrInvalidRequest = errors.New("invalid conversion request")

	// ErrJobActive is returned when a batch is started while another one is still running
	ErrJobActive = fmt.Errorf("%w: a conversion is already in progress", ErrInvalidRequest)
)

// InvalidRequestError describes why a request was rejected
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRequest, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidRequest) match
func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

func invalid(format string, args ...any) error {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}

// ExtractionError wraps a failure to convert a single source
type ExtractionError struct {
	SourcePath string
	Cause      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", filepath.Base(e.SourcePath), e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
