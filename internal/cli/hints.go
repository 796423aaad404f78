package cli

import (
	"errors"

	"github.com/jvs-project/fsnap/pkg/errclass"
)

// hint suggests a next step for well-known error classes.
func hint(err error) string {
	switch {
	case errors.Is(err, errclass.ErrInvalidRoot):
		return "The capture root must be an existing, readable directory."
	case errors.Is(err, errclass.ErrInsufficientHistory):
		return "Capture at least two snapshots before diffing."
	case errors.Is(err, errclass.ErrInvalidIndexOrder):
		return "Index 0 is the latest snapshot; pass the older (larger) index first."
	case errors.Is(err, errclass.ErrIndexOutOfRange):
		return "Run 'list history' to see the available indices."
	case errors.Is(err, errclass.ErrConfigInvalid):
		return "Run 'fsnap config show' to inspect the effective configuration."
	}
	return ""
}
