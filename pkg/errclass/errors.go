package errclass

import "fmt"

// SnapError is a stable, machine-readable error class.
type SnapError struct {
	Code    string
	Message string
}

func (e *SnapError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SnapError) Is(target error) bool {
	t, ok := target.(*SnapError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new SnapError with the same Code but a specific message.
func (e *SnapError) WithMessage(msg string) *SnapError {
	return &SnapError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new SnapError with a formatted message.
func (e *SnapError) WithMessagef(format string, args ...any) *SnapError {
	return &SnapError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Stable error classes.
var (
	// ErrInvalidRoot: capture target missing or not a directory.
	ErrInvalidRoot = &SnapError{Code: "E_INVALID_ROOT"}
	// ErrFileAccess: a single entry could not be read during a capture.
	// Never returned from Capture; delivered as a warning.
	ErrFileAccess = &SnapError{Code: "E_FILE_ACCESS"}
	// ErrInsufficientHistory: fewer than two snapshots for a pairwise diff.
	ErrInsufficientHistory = &SnapError{Code: "E_INSUFFICIENT_HISTORY"}
	// ErrInvalidIndexOrder: older index is not farther from 0 than newer index.
	ErrInvalidIndexOrder = &SnapError{Code: "E_INVALID_INDEX_ORDER"}
	// ErrIndexOutOfRange: a history index has no snapshot.
	ErrIndexOutOfRange = &SnapError{Code: "E_INDEX_OUT_OF_RANGE"}
	// ErrConfigInvalid: configuration file failed validation.
	ErrConfigInvalid = &SnapError{Code: "E_CONFIG_INVALID"}
)
