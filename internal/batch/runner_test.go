package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auri/internal/actions"
	"auri/internal/audit"
	"auri/internal/config"
	"auri/internal/executor/executortest"
)

func testRegistry() *actions.Registry {
	return actions.MustNew(
		actions.Entry{ID: "dns_reset", Behavior: actions.Command("resolvectl flush-caches")},
		actions.Entry{ID: "update_system", Behavior: actions.Command("pacman -Syu")},
		actions.Entry{ID: "reset_snapper", Destructive: true, Behavior: actions.Command("snapper -c root delete-config")},
		actions.Entry{ID: "kernel_manager", Interactive: true, Behavior: actions.Handoff{Command: "cachyos-kernel-manager"}},
	)
}

func newRunner(t *testing.T, fake *executortest.Fake) (*Runner, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "auri.log")
	return NewRunner(testRegistry(), fake, audit.New(logPath), zerolog.Nop()), logPath
}

func TestRunSkipsUnknownAndPreservesOrder(t *testing.T) {
	fake := executortest.New()
	r, _ := newRunner(t, fake)

	rep := r.Run(context.Background(), "batch", config.BatchConfig{Actions: []string{"dns_reset", "bogus", "update_system"}})

	assert.Equal(t, []string{"resolvectl flush-caches", "pacman -Syu"}, fake.Commands())
	require.Len(t, rep.Results, 3)
	assert.Equal(t, Result{ID: "dns_reset", Status: StatusOK}, rep.Results[0])
	assert.Equal(t, Result{ID: "bogus", Status: StatusSkipped, ExitCode: -1, Reason: ReasonUnknown}, rep.Results[1])
	assert.Equal(t, Result{ID: "update_system", Status: StatusOK}, rep.Results[2])
	assert.Equal(t, "batch", rep.Source)
	_, err := ulid.Parse(rep.RunID)
	assert.NoError(t, err)
}

func TestRunContinuesAfterFailure(t *testing.T) {
	fake := executortest.New()
	fake.Exits["resolvectl"] = 1
	r, _ := newRunner(t, fake)

	rep := r.Run(context.Background(), "scheduler", config.BatchConfig{Actions: []string{"dns_reset", "update_system"}})

	require.Len(t, rep.Results, 2)
	assert.Equal(t, StatusFailed, rep.Results[0].Status)
	assert.Equal(t, 1, rep.Results[0].ExitCode)
	assert.Equal(t, StatusOK, rep.Results[1].Status)
	assert.True(t, rep.Failed())
	ok, failed, skipped := rep.Counts()
	assert.Equal(t, [3]int{1, 1, 0}, [3]int{ok, failed, skipped})
}

func TestRunRunsDestructiveWithoutGateAndSkipsInteractive(t *testing.T) {
	fake := executortest.New()
	r, _ := newRunner(t, fake)

	rep := r.Run(context.Background(), "batch", config.BatchConfig{Actions: []string{"reset_snapper", "kernel_manager"}})

	assert.Equal(t, []string{"snapper -c root delete-config"}, fake.Commands())
	assert.Equal(t, StatusOK, rep.Results[0].Status)
	assert.Equal(t, StatusSkipped, rep.Results[1].Status)
	assert.Equal(t, ReasonInteractive, rep.Results[1].Reason)
}

func TestRunRecordsExecutorErrors(t *testing.T) {
	fake := executortest.New()
	fake.Err = errors.New("shell missing")
	r, _ := newRunner(t, fake)

	rep := r.Run(context.Background(), "batch", config.BatchConfig{Actions: []string{"dns_reset", "update_system"}})

	require.Len(t, rep.Results, 2)
	for _, res := range rep.Results {
		assert.Equal(t, StatusFailed, res.Status)
		assert.Contains(t, res.Reason, "shell missing")
	}
}

func TestRunStopsExecutingWhenCanceled(t *testing.T) {
	fake := executortest.New()
	r, _ := newRunner(t, fake)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := r.Run(ctx, "batch", config.BatchConfig{Actions: []string{"dns_reset"}})

	assert.Empty(t, fake.Calls)
	assert.Equal(t, ReasonCanceled, rep.Results[0].Reason)
}

func TestRunEmptyDocument(t *testing.T) {
	fake := executortest.New()
	r, _ := newRunner(t, fake)

	rep := r.Run(context.Background(), "batch", config.BatchConfig{Actions: []string{}})
	assert.Empty(t, rep.Results)
	assert.False(t, rep.Failed())
}

func TestRunWritesActivityLog(t *testing.T) {
	fake := executortest.New()
	r, logPath := newRunner(t, fake)

	rep := r.Run(context.Background(), "batch", config.BatchConfig{Actions: []string{"bogus", "dns_reset"}})

	f, err := os.Open(logPath)
	require.NoError(t, err)
	defer f.Close()
	var events []audit.Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev audit.Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 3)
	assert.Equal(t, "bogus", events[0].Action)
	assert.Equal(t, "ACT_UNKNOWN", events[0].Code)
	assert.Equal(t, StatusOK, events[1].Status)
	assert.Equal(t, audit.OpBatch, events[2].Operation)
	assert.Equal(t, rep.RunID, events[2].RunID)
	assert.Equal(t, "1", events[2].Fields["skipped"])
}
