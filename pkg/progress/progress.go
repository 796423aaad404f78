// Package progress provides progress reporting for long-running operations.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Callback receives progress updates during long operations. total is 0 when
// the amount of work is not known upfront. Callbacks may be invoked from
// several goroutines at once.
type Callback func(op string, current, total int, message string)

// Noop is a no-op callback for default behavior.
func Noop(op string, current, total int, message string) {}

// CountingTerminal is a progress line for counting operations where the total
// isn't known upfront, such as a directory walk.
type CountingTerminal struct {
	mu          sync.Mutex
	writer      io.Writer
	op          string
	every       int64
	current     atomic.Int64
	enabled     atomic.Bool
	lastLineLen int
}

// NewCountingTerminal creates a counting progress line on stderr that redraws
// every `every` items (1 when every < 1).
func NewCountingTerminal(op string, every int, enabled bool) *CountingTerminal {
	if every < 1 {
		every = 1
	}
	t := &CountingTerminal{
		writer: os.Stderr,
		op:     op,
		every:  int64(every),
	}
	t.enabled.Store(enabled)
	return t
}

// SetWriter redirects output.
func (t *CountingTerminal) SetWriter(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writer = w
}

// Increment advances the counter.
func (t *CountingTerminal) Increment() {
	current := t.current.Add(1)
	if !t.enabled.Load() || current%t.every != 0 {
		return
	}
	t.render(fmt.Sprintf("%d items", current))
}

// Callback returns a Callback that advances this counter once per call.
func (t *CountingTerminal) Callback() Callback {
	return func(op string, current, total int, message string) {
		t.Increment()
	}
}

// Count returns the number of items counted so far.
func (t *CountingTerminal) Count() int {
	return int(t.current.Load())
}

func (t *CountingTerminal) render(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear := "\r"
	if t.lastLineLen > 0 {
		clear = "\r" + strings.Repeat(" ", t.lastLineLen) + "\r"
	}
	line := fmt.Sprintf("%s... %s", t.op, message)
	fmt.Fprint(t.writer, clear+line)
	t.lastLineLen = len(line)
}

// Done clears the progress line and prints a final message.
func (t *CountingTerminal) Done(finalMessage string) {
	if !t.enabled.Load() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	clear := "\r"
	if t.lastLineLen > 0 {
		clear = "\r" + strings.Repeat(" ", t.lastLineLen) + "\r"
	}
	if finalMessage == "" {
		finalMessage = fmt.Sprintf("%s complete (%d items)", t.op, t.current.Load())
	}
	fmt.Fprint(t.writer, clear+finalMessage+"\n")
	t.lastLineLen = 0
}

// Reset zeroes the counter so the next run starts from nothing.
func (t *CountingTerminal) Reset() {
	t.current.Store(0)
}
