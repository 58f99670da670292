package solver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
)

// stderrTailBytes bounds how much resolver output is carried into the
// diagnostic.
const stderrTailBytes = 2048

// CommandSolver runs an external resolver executable. The configured command
// line is split shell-style once at construction; the candidate package
// names are appended as arguments on every call. A zero exit status means
// the set is solvable; anything else is reported as the diagnostic together
// with the tail of stderr.
type CommandSolver struct {
	argv    []string
	timeout time.Duration
}

// NewCommand builds a CommandSolver from a configured command line such as
// "rez env --no-output". Returns an error if the line is empty or cannot be
// split.
func NewCommand(commandLine string, timeout time.Duration) (*CommandSolver, error) {
	argv, err := shlex.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("failed to parse resolver command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("resolver command is empty")
	}
	return &CommandSolver{argv: argv, timeout: timeout}, nil
}

// Solve invokes the resolver command with the package names appended.
func (c *CommandSolver) Solve(ctx context.Context, packages []string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := append(append([]string{}, c.argv[1:]...), packages...)
	cmd := exec.CommandContext(ctx, c.argv[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if tail := tailOf(stderr.String()); tail != "" {
			return fmt.Errorf("%s: %w: %s", c.argv[0], err, tail)
		}
		return fmt.Errorf("%s: %w", c.argv[0], err)
	}
	return nil
}

func tailOf(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTailBytes {
		s = s[len(s)-stderrTailBytes:]
	}
	return s
}
