// Package shell implements the interactive snapshot/diff command loop.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jvs-project/fsnap/internal/diff"
	"github.com/jvs-project/fsnap/internal/report"
	"github.com/jvs-project/fsnap/pkg/color"
	"github.com/jvs-project/fsnap/pkg/errclass"
	"github.com/jvs-project/fsnap/pkg/model"
)

// Engine is the subset of *fsnap.Engine the shell drives.
type Engine interface {
	CaptureAndRecord(ctx context.Context, root string) (*model.Snapshot, error)
	Latest() (*model.Snapshot, bool)
	List() []*model.Snapshot
	DiffLatestPair() (*diff.DiffResult, error)
	DiffByIndex(olderIndex, newerIndex int) (*diff.DiffResult, error)
}

const helpText = `Available commands:
  snapshot [path]    capture a snapshot of a directory (prompts if path is omitted)
  diff               compare the two most recent snapshots
  diff <old> <new>   compare snapshots by history index (0 is the latest)
  list history       show recorded snapshots
  show current       show the contents of the latest snapshot
  help               show this help message
  exit               leave the shell
`

// Shell reads commands line by line from an io.Reader.
type Shell struct {
	eng    Engine
	in     *bufio.Scanner
	out    io.Writer
	prompt string
}

// New creates a shell reading from in and writing to out.
func New(eng Engine, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		eng:    eng,
		in:     bufio.NewScanner(in),
		out:    out,
		prompt: "> ",
	}
}

// Run processes commands until exit, end of input, or cancellation of ctx.
// Command failures are printed and do not stop the loop. Cancellation is
// observed between commands.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, color.Header("fsnap interactive shell"))
	fmt.Fprintln(s.out, "Type 'help' for available commands.")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, ok := s.readLine(s.prompt)
		if !ok {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		if !s.Execute(ctx, line) {
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		}
	}
}

func (s *Shell) readLine(prompt string) (string, bool) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// Execute runs a single command line. It returns false when the line asks
// the shell to exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch cmd {
	case "snapshot":
		err = s.snapshot(ctx, strings.TrimSpace(strings.TrimPrefix(line, fields[0])))
	case "diff":
		err = s.diff(args)
	case "list":
		if len(args) == 1 && args[0] == "history" {
			report.History(s.out, s.eng.List())
		} else {
			fmt.Fprintln(s.out, "Usage: list history")
		}
	case "show":
		if len(args) == 1 && args[0] == "current" {
			s.showCurrent()
		} else {
			fmt.Fprintln(s.out, "Usage: show current")
		}
	case "help", "?":
		fmt.Fprint(s.out, helpText)
	case "exit", "quit":
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command: %s\n", cmd)
		fmt.Fprintln(s.out, "Type 'help' for available commands.")
	}

	if err != nil {
		fmt.Fprintf(s.out, "%s %v\n", color.Error("Error:"), err)
	}
	return true
}

// snapshot keeps the raw argument so paths containing spaces survive.
func (s *Shell) snapshot(ctx context.Context, path string) error {
	if path == "" {
		var ok bool
		path, ok = s.readLine("Enter directory path: ")
		if !ok || path == "" {
			fmt.Fprintln(s.out, "No directory path provided.")
			return nil
		}
	}

	fmt.Fprintf(s.out, "Capturing snapshot of %s\n", path)
	snap, err := s.eng.CaptureAndRecord(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, color.Successf("Snapshot %s captured (%d files)", snap.ID().ShortID(), snap.Len()))
	return nil
}

func (s *Shell) diff(args []string) error {
	var (
		result *diff.DiffResult
		err    error
	)
	switch len(args) {
	case 0:
		result, err = s.eng.DiffLatestPair()
		if errors.Is(err, errclass.ErrInsufficientHistory) {
			fmt.Fprintln(s.out, "Need at least 2 snapshots to compare.")
			return nil
		}
	case 2:
		older, errOld := strconv.Atoi(args[0])
		newer, errNew := strconv.Atoi(args[1])
		if errOld != nil || errNew != nil {
			fmt.Fprintln(s.out, "Invalid indices. Please use numbers.")
			return nil
		}
		result, err = s.eng.DiffByIndex(older, newer)
	default:
		fmt.Fprintln(s.out, "Usage: diff [<older_index> <newer_index>]")
		return nil
	}
	if err != nil {
		return err
	}
	report.Diff(s.out, result, false)
	return nil
}

func (s *Shell) showCurrent() {
	snap, ok := s.eng.Latest()
	if !ok {
		fmt.Fprintln(s.out, "No snapshot captured yet.")
		return
	}
	report.Snapshot(s.out, snap, false)
}
