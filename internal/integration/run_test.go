// Package integration wires driver, dispatcher, and executor together
// the way cmd/concurrent-database does, exercising end-to-end
// scheduling scenarios through the full stack instead of against
// TransactionManager directly.
package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Varun-Date98/concurrent-database/internal/dispatcher"
	"github.com/Varun-Date98/concurrent-database/internal/driver"
	"github.com/Varun-Date98/concurrent-database/internal/executor"
)

func runLines(t *testing.T, lines string) (*executor.TransactionManager, *dispatcher.Dispatcher) {
	t.Helper()

	dir := t.TempDir()
	writeSchedule(t, dir, "s.txt", lines)

	schedules, err := driver.LoadSchedules(dir, true)
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	lockMgr := executor.NewLockManager()
	tm := executor.NewTransactionManager(lockMgr, nil)
	disp := dispatcher.NewDispatcher(tm)

	for _, op := range schedules[0].Operations {
		_ = disp.Dispatch(op)
	}
	return tm, disp
}

func writeSchedule(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func TestEndToEndWoundOnWriteWrite(t *testing.T) {
	// b1; b2; w2 X; w1 X -> T2 wounded, T1 holds X.
	tm, _ := runLines(t, "b 1\nb 2\nw 2 X\nw 1 X\n")

	t1, _ := tm.Lookup(1)
	t2, _ := tm.Lookup(2)
	assert.Equal(t, executor.StateActive, t1.State)
	assert.Equal(t, executor.StateAborted, t2.State)
}

func TestEndToEndWaitThenCommitRestarts(t *testing.T) {
	// b1; b2; w1 X; w2 X; e1 -> T2 waits, then is restarted and holds X.
	tm, disp := runLines(t, "b 1\nb 2\nw 1 X\nw 2 X\ne 1\n")

	t1, _ := tm.Lookup(1)
	t2, _ := tm.Lookup(2)
	assert.Equal(t, executor.StateCommitted, t1.State)
	assert.Equal(t, executor.StateActive, t2.State)
	assert.Equal(t, []string{"X"}, t2.HeldResources())

	stats := disp.Stats()
	assert.Equal(t, int64(5), stats.OpsExecuted)
}

func TestEndToEndMalformedLinesAreSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeSchedule(t, dir, "s.txt", "b 1\nbogus line\nw 1 X\ne 1\n")

	schedules, err := driver.LoadSchedules(dir, false)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Len(t, schedules[0].Errors, 1)

	lockMgr := executor.NewLockManager()
	tm := executor.NewTransactionManager(lockMgr, nil)
	disp := dispatcher.NewDispatcher(tm)
	for _, op := range schedules[0].Operations {
		require.NoError(t, disp.Dispatch(op))
	}

	t1, _ := tm.Lookup(1)
	assert.Equal(t, executor.StateCommitted, t1.State)
}
