package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchedule(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func TestLoadSchedulesOrdersAndParses(t *testing.T) {
	dir := t.TempDir()
	writeSchedule(t, dir, "b.txt", "b 1\nr 1 X\ne 1\n")
	writeSchedule(t, dir, "a.txt", "b 2\nw 2 Y\n")
	writeSchedule(t, dir, "ignored.log", "b 3\n")

	schedules, err := LoadSchedules(dir, true)
	require.NoError(t, err)
	require.Len(t, schedules, 2)

	assert.Equal(t, "a.txt", schedules[0].Name)
	assert.Equal(t, "b.txt", schedules[1].Name)

	assert.Len(t, schedules[0].Operations, 2)
	assert.Len(t, schedules[1].Operations, 3)
}

func TestLoadSchedulesSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	writeSchedule(t, dir, "s.txt", "b 1\n\n   \ne 1\n")

	schedules, err := LoadSchedules(dir, true)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Len(t, schedules[0].Operations, 2)
}

func TestLoadSchedulesHaltOnErrorAbortsFile(t *testing.T) {
	dir := t.TempDir()
	writeSchedule(t, dir, "s.txt", "b 1\nbogus\n")

	_, err := LoadSchedules(dir, true)
	assert.Error(t, err)
}

func TestLoadSchedulesSkipsMalformedLinesWhenNotHalting(t *testing.T) {
	dir := t.TempDir()
	writeSchedule(t, dir, "s.txt", "b 1\nbogus\ne 1\n")

	schedules, err := LoadSchedules(dir, false)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Len(t, schedules[0].Operations, 2)
	assert.Len(t, schedules[0].Errors, 1)
}
