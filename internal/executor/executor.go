// Package executor runs operator commands through a shell, streaming combined
// output line by line and classifying the outcome by exit status.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/go-cmd/cmd"
	"github.com/rs/zerolog"

	"auri/internal/audit"
)

// LineFunc receives each line of combined stdout/stderr without its newline.
type LineFunc func(line string)

// Executor is the command boundary the rest of auri depends on.
type Executor interface {
	// Execute runs command to completion. The exit status is meaningful
	// whenever err is nil; err reports a command that could not be run.
	Execute(ctx context.Context, command string, onLine LineFunc) (int, error)
	// Attach runs command wired to the process's own stdin/stdout/stderr.
	Attach(ctx context.Context, command string) (int, error)
}

// Shell executes commands as `<Path> -c <command>`.
type Shell struct {
	Path  string
	Env   []string
	Audit *audit.Logger
	Log   zerolog.Logger
}

func NewShell(path string, logger *audit.Logger, log zerolog.Logger) *Shell {
	if path == "" {
		path = "/bin/bash"
	}
	return &Shell{Path: path, Audit: logger, Log: log.With().Str("component", "executor").Logger()}
}

func (s *Shell) Execute(ctx context.Context, command string, onLine LineFunc) (int, error) {
	s.started(command)

	// A Stop that lands before the process exists is honored only while
	// BeforeExec hooks run.
	c := cmd.NewCmdOptions(cmd.Options{
		Buffered:   false,
		Streaming:  true,
		BeforeExec: []func(*exec.Cmd){func(*exec.Cmd) {}},
	}, s.Path, "-c", command)
	if len(s.Env) > 0 {
		c.Env = s.Env
	}

	if err := ctx.Err(); err != nil {
		s.finished(command, -1, err)
		return -1, err
	}
	statusChan := c.Start()

	done := make(chan struct{})
	emit := func(line string) {
		if onLine != nil {
			onLine(line)
		}
	}

	// Stdout and stderr are merged in arrival order. go-cmd closes both
	// channels before it sends the final status and blocks on a full
	// channel, so they are read to the end even after a cancel.
	go func() {
		defer close(done)
		stdout, stderr := c.Stdout, c.Stderr
		cancel := ctx.Done()
		stopped := false
		var retry <-chan time.Time
		for stdout != nil || stderr != nil {
			select {
			case line, ok := <-stdout:
				if !ok {
					stdout = nil
					continue
				}
				if !stopped {
					emit(line)
				}
			case line, ok := <-stderr:
				if !ok {
					stderr = nil
					continue
				}
				if !stopped {
					emit(line)
				}
			case <-cancel:
				cancel, stopped = nil, true
				if errors.Is(c.Stop(), cmd.ErrNotStarted) {
					retry = time.After(10 * time.Millisecond)
				}
			case <-retry:
				retry = nil
				// Stop raced the start; signal the group once the pid is known.
				if pid := c.Status().PID; pid > 0 {
					_ = syscall.Kill(-pid, syscall.SIGTERM)
				} else {
					retry = time.After(10 * time.Millisecond)
				}
			}
		}
	}()

	status := <-statusChan
	<-done

	if err := ctx.Err(); err != nil {
		s.finished(command, status.Exit, err)
		return status.Exit, err
	}
	if status.Error != nil {
		s.finished(command, -1, status.Error)
		return -1, fmt.Errorf("EXEC_START: %s: %w", s.Path, status.Error)
	}
	s.finished(command, status.Exit, nil)
	return status.Exit, nil
}

// Attach hands the terminal to the child. go-cmd always captures output, so
// this path uses os/exec directly.
func (s *Shell) Attach(ctx context.Context, command string) (int, error) {
	s.started(command)
	c := exec.CommandContext(ctx, s.Path, "-c", command)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if len(s.Env) > 0 {
		c.Env = s.Env
	}
	err := c.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		s.finished(command, 0, nil)
		return 0, nil
	case errors.As(err, &exitErr):
		s.finished(command, exitErr.ExitCode(), nil)
		return exitErr.ExitCode(), nil
	default:
		s.finished(command, -1, err)
		return -1, fmt.Errorf("EXEC_START: %s: %w", s.Path, err)
	}
}

func (s *Shell) started(command string) {
	s.Log.Debug().Str("command", command).Msg("run")
	_ = s.Audit.Log(audit.Event{Operation: audit.OpCommand, Status: "started", Message: command})
}

func (s *Shell) finished(command string, exit int, err error) {
	ev := audit.Event{Operation: audit.OpCommand, Status: "ok", ExitCode: audit.Exit(exit), Message: command}
	switch {
	case err != nil:
		ev.Status = "error"
		ev.Code = "EXEC_START"
		ev.Fields = map[string]string{"error": err.Error()}
		s.Log.Error().Err(err).Str("command", command).Msg("command could not run")
	case exit != 0:
		ev.Status = "failed"
		s.Log.Warn().Int("exit", exit).Str("command", command).Msg("command failed")
	}
	_ = s.Audit.Log(ev)
}
