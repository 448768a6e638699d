// Package actions holds the catalog of named maintenance operations.
package actions

import (
	"context"
	"errors"
	"fmt"

	"auri/internal/executor"
)

// Operator is the interactive side a behavior may talk to. It is nil during
// unattended runs.
type Operator interface {
	ReadLine(prompt string) (string, error)
	// Suspend releases the terminal for the duration of fn.
	Suspend(fn func() error) error
}

// Env is everything a behavior receives to run.
type Env struct {
	Exec     executor.Executor
	Output   executor.LineFunc
	Operator Operator
}

// Behavior is the executable part of an entry. The returned status is the
// external exit status; err means the behavior could not run at all.
type Behavior interface {
	Run(ctx context.Context, env Env) (int, error)
}

// BehaviorFunc adapts a function to Behavior.
type BehaviorFunc func(ctx context.Context, env Env) (int, error)

func (f BehaviorFunc) Run(ctx context.Context, env Env) (int, error) { return f(ctx, env) }

// Shell runs its steps in order through the executor. Every step runs; the
// first non-zero status is reported.
type Shell struct {
	Steps []string
}

func Command(steps ...string) Shell {
	return Shell{Steps: steps}
}

func (s Shell) Run(ctx context.Context, env Env) (int, error) {
	status := 0
	for _, step := range s.Steps {
		code, err := env.Exec.Execute(ctx, step, env.Output)
		if err != nil {
			return code, err
		}
		if code != 0 && status == 0 {
			status = code
		}
	}
	return status, nil
}

// Handoff gives the terminal to an external interactive program.
type Handoff struct {
	Command string
}

func (h Handoff) Run(ctx context.Context, env Env) (int, error) {
	if env.Operator == nil {
		return -1, ErrNeedsOperator
	}
	code := -1
	err := env.Operator.Suspend(func() error {
		var runErr error
		code, runErr = env.Exec.Attach(ctx, h.Command)
		return runErr
	})
	return code, err
}

// Entry is one catalog item. ID is the persisted key and never changes.
type Entry struct {
	ID          string
	Label       string
	Destructive bool
	// Warning restates the risk before the confirmation token is asked.
	Warning     string
	Interactive bool
	// Hint is shown to the operator when the action fails.
	Hint     []string
	Behavior Behavior
}

// Execute runs the behavior and turns a non-zero status into *ExecError.
func (e Entry) Execute(ctx context.Context, env Env) (int, error) {
	code, err := e.Behavior.Run(ctx, env)
	if err != nil {
		return code, fmt.Errorf("ACT_RUN: %s: %w", e.ID, err)
	}
	if code != 0 {
		return code, &ExecError{ID: e.ID, ExitCode: code}
	}
	return 0, nil
}

var (
	// ErrUnknownAction is returned for identifiers absent from the registry.
	ErrUnknownAction = errors.New("ACT_UNKNOWN: unknown action identifier")
	// ErrNeedsOperator is returned by behaviors that cannot run unattended.
	ErrNeedsOperator = errors.New("ACT_INTERACTIVE: action requires an operator")
)

// ExecError reports an action whose command exited non-zero.
type ExecError struct {
	ID       string
	ExitCode int
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("ACT_EXEC: %s exited with status %d", e.ID, e.ExitCode)
}
