package progress

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoop(t *testing.T) {
	Noop("capture", 1, 0, "ignored")
}

func TestCountingTerminal_Increment(t *testing.T) {
	var buf bytes.Buffer
	term := NewCountingTerminal("Scanning", 1, true)
	term.SetWriter(&buf)

	term.Increment()
	term.Increment()
	term.Increment()

	output := buf.String()
	assert.Contains(t, output, "Scanning")
	assert.Contains(t, output, "3 items")
	assert.Equal(t, 3, term.Count())
}

func TestCountingTerminal_Throttled(t *testing.T) {
	var buf bytes.Buffer
	term := NewCountingTerminal("Scanning", 10, true)
	term.SetWriter(&buf)

	for i := 0; i < 9; i++ {
		term.Increment()
	}
	assert.Equal(t, 0, buf.Len())

	term.Increment()
	assert.Contains(t, buf.String(), "10 items")
}

func TestCountingTerminal_Done(t *testing.T) {
	var buf bytes.Buffer
	term := NewCountingTerminal("Scanning", 1, true)
	term.SetWriter(&buf)

	term.Increment()
	term.Increment()
	buf.Reset()
	term.Done("")

	assert.Contains(t, buf.String(), "Scanning complete (2 items)")

	buf.Reset()
	term.Done("captured 2 files")
	assert.Contains(t, buf.String(), "captured 2 files\n")
}

func TestCountingTerminal_Disabled(t *testing.T) {
	var buf bytes.Buffer
	term := NewCountingTerminal("Scanning", 1, false)
	term.SetWriter(&buf)

	term.Increment()
	term.Done("finished")

	assert.Equal(t, 0, buf.Len())
	assert.Equal(t, 1, term.Count(), "counting continues while disabled")
}

func TestCountingTerminal_ResetBetweenRuns(t *testing.T) {
	var buf bytes.Buffer
	term := NewCountingTerminal("Scanning", 1, true)
	term.SetWriter(&buf)

	for i := 0; i < 3; i++ {
		term.Increment()
	}
	term.Done("Scanned 3 files")
	term.Reset()
	assert.Equal(t, 0, term.Count())

	buf.Reset()
	term.Increment()
	assert.Equal(t, 1, term.Count())
	assert.Contains(t, buf.String(), "Scanning... 1 items")
	assert.NotContains(t, buf.String(), "4 items")
}

func TestCountingTerminal_CallbackConcurrent(t *testing.T) {
	var buf bytes.Buffer
	term := NewCountingTerminal("Scanning", 7, true)
	term.SetWriter(&buf)
	cb := term.Callback()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				cb("capture", i, 0, "")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, term.Count())
}
