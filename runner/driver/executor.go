package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Command is one external process invocation
type Command struct {
	Args []string
	Dir  string
	// Env entries are added on top of the current environment
	Env   []string
	Stdin string
}

func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// Executor runs external commands. A non-zero exit is an error.
type Executor interface {
	Run(ctx context.Context, cmd Command) error
	Output(ctx context.Context, cmd Command) (string, error)
}

// ExecExecutor runs commands as child processes
type ExecExecutor struct {
	log    logrus.FieldLogger
	stdout io.Writer
	stderr io.Writer
}

// ExecOption configures an ExecExecutor
type ExecOption func(*ExecExecutor)

// WithQuietOutput discards the output of the commands run
func WithQuietOutput() ExecOption {
	return func(e *ExecExecutor) {
		e.stdout = io.Discard
		e.stderr = io.Discard
	}
}

// NewExecExecutor creates an executor forwarding child output to the
// process's own stdout and stderr
func NewExecExecutor(log logrus.FieldLogger, opts ...ExecOption) *ExecExecutor {
	e := &ExecExecutor{
		log:    log.WithField("component", "executor"),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *ExecExecutor) command(ctx context.Context, c Command) (*exec.Cmd, error) {
	if len(c.Args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}
	cmd.Stderr = e.stderr

	e.log.WithFields(logrus.Fields{
		"dir": c.Dir,
		"env": c.Env,
	}).Debugf("$ %s", c)
	return cmd, nil
}

// Run runs c to completion
func (e *ExecExecutor) Run(ctx context.Context, c Command) error {
	cmd, err := e.command(ctx, c)
	if err != nil {
		return err
	}
	cmd.Stdout = e.stdout
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %q failed: %w", c.String(), err)
	}
	return nil
}

// Output runs c and returns its standard output
func (e *ExecExecutor) Output(ctx context.Context, c Command) (string, error) {
	cmd, err := e.command(ctx, c)
	if err != nil {
		return "", err
	}
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("command %q failed: %w", c.String(), err)
	}
	return string(out), nil
}
