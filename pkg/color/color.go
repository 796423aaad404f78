// Package color provides terminal color output for fsnap reports.
// It respects the NO_COLOR environment variable (https://no-color.org/) and
// stays off when stdout is not a terminal.
package color

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-isatty"
)

var state struct {
	once       sync.Once
	enabled    atomic.Bool
	overridden atomic.Bool
}

// Init initializes the color system based on environment and flags.
// Enable and Disable calls made before Init take precedence.
func Init(noColorFlag bool) {
	state.once.Do(func() {
		if state.overridden.Load() {
			return
		}
		enabled := true
		if _, exists := os.LookupEnv("NO_COLOR"); exists {
			enabled = false
		}
		if os.Getenv("TERM") == "dumb" {
			enabled = false
		}
		if fd := os.Stdout.Fd(); !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
			enabled = false
		}
		if noColorFlag {
			enabled = false
		}
		state.enabled.Store(enabled)
	})
}

// Enabled returns true if color output is enabled.
func Enabled() bool {
	Init(false)
	return state.enabled.Load()
}

// Disable turns off color output.
func Disable() {
	state.overridden.Store(true)
	state.enabled.Store(false)
}

// Enable turns on color output.
func Enable() {
	state.overridden.Store(true)
	state.enabled.Store(true)
}

// ANSI color codes
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	DimCode = "\033[2m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
)

type colorFunc func(string) string

func makeColorFunc(code string) colorFunc {
	return func(s string) string {
		if !Enabled() {
			return s
		}
		return code + s + Reset
	}
}

var (
	Redf    = makeColorFunc(Red)
	Greenf  = makeColorFunc(Green)
	Yellowf = makeColorFunc(Yellow)
	Bluef   = makeColorFunc(Blue)
	Cyanf   = makeColorFunc(Cyan)
	Boldf   = makeColorFunc(Bold)
	Dimf    = makeColorFunc(DimCode)
)

// Added formats an added-file line in green.
func Added(s string) string { return Greenf(s) }

// Removed formats a removed-file line in red.
func Removed(s string) string { return Redf(s) }

// Modified formats a modified-file line in yellow.
func Modified(s string) string { return Yellowf(s) }

// Success formats a success message in green.
func Success(s string) string {
	return Greenf(s)
}

// Successf formats a success message with printf-style arguments.
func Successf(format string, args ...any) string {
	return Greenf(fmt.Sprintf(format, args...))
}

// Error formats an error message in red.
func Error(s string) string {
	return Redf(s)
}

// Warning formats a warning message in yellow.
func Warning(s string) string {
	return Yellowf(s)
}

// SnapshotID formats a snapshot ID in cyan.
func SnapshotID(s string) string {
	return Cyanf(s)
}

// Header formats a header in bold.
func Header(s string) string {
	return Boldf(s)
}

// Dim formats dimmed text for secondary information.
func Dim(s string) string {
	return Dimf(s)
}
