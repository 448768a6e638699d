package store

import "auri/internal/batch"

const (
	StateVersion = 1
	// MaxRuns is how many unattended run reports are retained.
	MaxRuns = 20
)

// State is the run history. Runs are ordered oldest first.
type State struct {
	Version int            `toml:"version"`
	Runs    []batch.Report `toml:"runs"`
}
