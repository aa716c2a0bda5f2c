// Package tool runs the external programs (helm, kustomize, kubectl)
// that render manifests.
package tool

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/fluxcd/kubeingest/metrics"
)

// ErrNotFound is returned (wrapped) when the program to be run can't
// be found.
var ErrNotFound = errors.New("executable not found")

// Command is a program invocation.
type Command struct {
	Name  string
	Args  []string
	Env   []string // added to the environment of this process
	Dir   string
	Stdin []byte
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner runs a command to completion, returning what it wrote to
// stdout. If the command exits non-zero, the error is an *ExitError.
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// ExitError is returned when a command fails; it carries whatever the
// command wrote to stderr.
type ExitError struct {
	Command string
	Stderr  []byte
	Err     error
}

func (e *ExitError) Error() string {
	if stderr := strings.TrimSpace(string(e.Stderr)); stderr != "" {
		return fmt.Sprintf("running %s: %s", e.Command, stderr)
	}
	return fmt.Sprintf("running %s: %v", e.Command, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exec runs commands as subprocesses. No timeout is imposed; the
// command is killed only if ctx is cancelled.
type Exec struct {
	Logger log.Logger
}

func (x Exec) Run(ctx context.Context, c Command) ([]byte, error) {
	logger := x.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	path, err := exec.LookPath(c.Name)
	if err != nil {
		return nil, &ExitError{Command: c.String(), Err: errors.Wrap(ErrNotFound, c.Name)}
	}

	cmd := exec.CommandContext(ctx, path, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Dir = c.Dir
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	begin := time.Now()
	err = cmd.Run()
	runDuration.With(
		metrics.LabelTool, c.Name,
		metrics.LabelSuccess, fmt.Sprint(err == nil),
	).Observe(time.Since(begin).Seconds())
	logger.Log("cmd", c.String(), "took", time.Since(begin), "err", err)
	if err != nil {
		return nil, &ExitError{Command: c.String(), Stderr: stderr.Bytes(), Err: err}
	}
	return stdout.Bytes(), nil
}
