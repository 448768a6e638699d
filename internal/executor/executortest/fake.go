// Package executortest provides a scripted Executor for tests.
package executortest

import (
	"context"
	"strings"
	"sync"

	"auri/internal/executor"
)

// Call is one recorded invocation.
type Call struct {
	Command  string
	Attached bool
}

// Fake records every command and answers with scripted exit codes. A
// command matches a rule when it contains the rule's key.
type Fake struct {
	mu     sync.Mutex
	Calls  []Call
	Exits  map[string]int
	Output map[string][]string
	Err    error
}

var _ executor.Executor = (*Fake)(nil)

func New() *Fake {
	return &Fake{Exits: map[string]int{}, Output: map[string][]string{}}
}

func (f *Fake) Execute(_ context.Context, command string, onLine executor.LineFunc) (int, error) {
	f.record(Call{Command: command})
	if f.Err != nil {
		return -1, f.Err
	}
	if onLine != nil {
		for key, lines := range f.Output {
			if strings.Contains(command, key) {
				for _, l := range lines {
					onLine(l)
				}
			}
		}
	}
	return f.exitFor(command), nil
}

func (f *Fake) Attach(_ context.Context, command string) (int, error) {
	f.record(Call{Command: command, Attached: true})
	if f.Err != nil {
		return -1, f.Err
	}
	return f.exitFor(command), nil
}

// Commands returns the recorded command strings in order.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		out = append(out, c.Command)
	}
	return out
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)
}

func (f *Fake) exitFor(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, code := range f.Exits {
		if strings.Contains(command, key) {
			return code
		}
	}
	return 0
}
