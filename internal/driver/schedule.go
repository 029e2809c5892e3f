package driver

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Schedule is one fully-tokenized input file: a name (for logging and
// the end-of-schedule banner) and its ordered operations.
type Schedule struct {
	Name       string
	Operations []Operation
	Errors     []error // malformed lines skipped when haltOnError is false
}

// LoadSchedules reads every *.txt file directly under dir, tokenizes
// each non-blank line, and returns one Schedule per file in
// lexicographic filename order (deterministic, unlike os.ReadDir's
// platform-dependent ordering guarantees on some filesystems).
//
// With haltOnError false, malformed lines are skipped and collected in
// each Schedule's Errors. With haltOnError true, the first malformed
// line in any file aborts the whole load: LoadSchedules returns an
// error and no schedules.
func LoadSchedules(dir string, haltOnError bool) ([]Schedule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading schedule directory %q: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	schedules := make([]Schedule, 0, len(names))
	for _, name := range names {
		sched, err := loadSchedule(filepath.Join(dir, name), name, haltOnError)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, sched)
	}
	return schedules, nil
}

func loadSchedule(path, name string, haltOnError bool) (Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("opening schedule %q: %w", name, err)
	}
	defer f.Close()

	sched := Schedule{Name: name}
	scanner := bufio.NewScanner(f)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		op, err := ParseLine(scanner.Text(), lineNo)
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, errEmptyLine) {
				continue
			}
			if haltOnError {
				return Schedule{}, fmt.Errorf("schedule %q: %w", name, err)
			}
			sched.Errors = append(sched.Errors, err)
			continue
		}
		sched.Operations = append(sched.Operations, op)
	}
	if err := scanner.Err(); err != nil {
		return Schedule{}, fmt.Errorf("reading schedule %q: %w", name, err)
	}

	return sched, nil
}
