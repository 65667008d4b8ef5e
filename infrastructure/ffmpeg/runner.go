package ffmpeg

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// CommandRunner defines the interface for running external commands
// This allows mocking exec.Command in tests
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// stderrTailLines is how many trailing stderr lines a failed command reports
const stderrTailLines = 5

// CommandError is returned when a command exits unsuccessfully
type CommandError struct {
	Err    error
	Stderr string // last lines of diagnostic output, "; " separated
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Stderr
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecCommandRunner is the production implementation using os/exec.
// Commands run in their own process group so a Ctrl+C aimed at the CLI
// does not reach them.
type ExecCommandRunner struct {
	// Stderr receives the command's diagnostic output; os.Stderr when nil
	Stderr io.Writer
}

// Run executes a command and returns any error
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	detach(cmd)

	out := r.Stderr
	if out == nil {
		out = os.Stderr
	}
	tail := newTailBuffer(stderrTailLines)
	cmd.Stderr = io.MultiWriter(out, tail)

	if err := cmd.Run(); err != nil {
		return &CommandError{Err: err, Stderr: tail.String()}
	}
	return nil
}

// Output executes a command and returns its output
func (r *ExecCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	detach(cmd)
	return cmd.Output()
}

// tailBuffer keeps the last max non-empty lines written to it
type tailBuffer struct {
	mu    sync.Mutex
	max   int
	lines []string
	part  []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.part = append(t.part, p...)
	for {
		i := bytes.IndexByte(t.part, '\n')
		if i < 0 {
			break
		}
		t.push(string(t.part[:i]))
		t.part = t.part[i+1:]
	}
	return len(p), nil
}

func (t *tailBuffer) push(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

// String joins the retained lines, including an unterminated last line
func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := append([]string(nil), t.lines...)
	if last := strings.TrimSpace(string(t.part)); last != "" {
		lines = append(lines, last)
		if len(lines) > t.max {
			lines = lines[len(lines)-t.max:]
		}
	}
	return strings.Join(lines, "; ")
}
