// Package store keeps the history of unattended runs.
package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"auri/internal/batch"
	"auri/internal/fsutil"
)

// ErrCorrupt marks a state file that exists but cannot be used.
var ErrCorrupt = errors.New("corrupt state")

func LoadState(dir string) (State, error) {
	path := StatePath(dir)
	blob, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{Version: StateVersion}, nil
		}
		return State{}, fmt.Errorf("STATE_READ: %w", err)
	}
	var st State
	if err := toml.Unmarshal(blob, &st); err != nil {
		return State{}, fmt.Errorf("STATE_PARSE: %s: %w: %w", path, ErrCorrupt, err)
	}
	if st.Version == 0 {
		st.Version = StateVersion
	}
	if st.Version != StateVersion {
		return State{}, fmt.Errorf("STATE_VERSION: unsupported state version %d: %w", st.Version, ErrCorrupt)
	}
	for i := range st.Runs {
		if st.Runs[i].RunID == "" {
			return State{}, fmt.Errorf("STATE_SCHEMA: run entry missing run_id: %w", ErrCorrupt)
		}
	}
	return st, nil
}

func SaveState(dir string, st State) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("STATE_WRITE: %w", err)
	}
	st.Version = StateVersion
	blob, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("STATE_ENCODE: %w", err)
	}
	if err := fsutil.AtomicWrite(StatePath(dir), blob, 0o644); err != nil {
		return fmt.Errorf("STATE_WRITE: %w", err)
	}
	return nil
}

// AppendRun adds rep and drops the oldest runs beyond MaxRuns.
func AppendRun(st *State, rep batch.Report) {
	st.Runs = append(st.Runs, rep)
	if extra := len(st.Runs) - MaxRuns; extra > 0 {
		st.Runs = append([]batch.Report(nil), st.Runs[extra:]...)
	}
}

// RecordRun loads the history in dir, appends rep and saves it. A corrupt
// history is moved to its .bak path and replaced by a fresh one holding
// only rep; recovered reports that this happened.
func RecordRun(dir string, rep batch.Report) (recovered bool, err error) {
	st, err := LoadState(dir)
	if errors.Is(err, ErrCorrupt) {
		path := StatePath(dir)
		if mvErr := os.Rename(path, path+fsutil.BackupSuffix); mvErr != nil {
			return false, fmt.Errorf("STATE_WRITE: back up %s: %w", path, mvErr)
		}
		st, err, recovered = State{Version: StateVersion}, nil, true
	}
	if err != nil {
		return false, err
	}
	AppendRun(&st, rep)
	return recovered, SaveState(dir, st)
}

// LastRun returns the most recent run, optionally restricted to source.
func LastRun(st State, source string) (batch.Report, bool) {
	for i := len(st.Runs) - 1; i >= 0; i-- {
		if source == "" || st.Runs[i].Source == source {
			return st.Runs[i], true
		}
	}
	return batch.Report{}, false
}

// Recent returns up to n runs, newest first.
func Recent(st State, n int) []batch.Report {
	out := []batch.Report{}
	for i := len(st.Runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, st.Runs[i])
	}
	return out
}
