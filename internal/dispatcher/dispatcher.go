// Package dispatcher routes parsed schedule operations to the
// transaction manager and accumulates execution statistics.
package dispatcher

import (
	"fmt"
	"sync"
	"time"

	"github.com/Varun-Date98/concurrent-database/internal/driver"
	"github.com/Varun-Date98/concurrent-database/internal/executor"
)

// Dispatcher routes driver.Operations to a TransactionManager and
// tracks per-kind timing statistics for the schedule it is running.
type Dispatcher struct {
	mu sync.Mutex

	tm *executor.TransactionManager

	opsExecuted     int64
	totalHandleTime time.Duration
	opKindStats     map[driver.OpKind]int64
}

// NewDispatcher creates a dispatcher bound to tm. A fresh Dispatcher
// (with a fresh TransactionManager) should be created per schedule.
func NewDispatcher(tm *executor.TransactionManager) *Dispatcher {
	return &Dispatcher{
		tm:          tm,
		opKindStats: make(map[driver.OpKind]int64),
	}
}

// Dispatch runs a single operation and records its handling time.
// Rejected operations (duplicate begin, unknown id, inactive
// transaction) return their error but do not stop the schedule — the
// transaction manager has already reported them to its EventSink, and
// the caller moves on to the next line.
func (d *Dispatcher) Dispatch(op driver.Operation) error {
	start := time.Now()

	var err error
	switch op.Kind {
	case driver.OpBegin:
		err = d.tm.Begin(op.TxnID)
	case driver.OpRead:
		err = d.tm.Read(op.TxnID, op.Item)
	case driver.OpWrite:
		err = d.tm.Write(op.TxnID, op.Item)
	case driver.OpEnd:
		err = d.tm.Commit(op.TxnID)
	default:
		err = fmt.Errorf("unrecognized operation kind: %v", op.Kind)
	}

	d.updateStats(op.Kind, time.Since(start))
	return err
}

func (d *Dispatcher) updateStats(kind driver.OpKind, elapsed time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.opsExecuted++
	d.totalHandleTime += elapsed
	d.opKindStats[kind]++
}

// Stats returns a snapshot of the dispatcher's running statistics.
func (d *Dispatcher) Stats() DispatcherStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := DispatcherStats{
		OpsExecuted:     d.opsExecuted,
		TotalHandleTime: d.totalHandleTime,
		OpKindStats:     make(map[driver.OpKind]int64, len(d.opKindStats)),
	}
	for kind, count := range d.opKindStats {
		stats.OpKindStats[kind] = count
	}
	if d.opsExecuted > 0 {
		stats.AverageHandleTime = d.totalHandleTime / time.Duration(d.opsExecuted)
	}
	return stats
}

// DispatcherStats holds statistics about the operations a Dispatcher
// has processed in a schedule.
type DispatcherStats struct {
	OpsExecuted       int64
	TotalHandleTime   time.Duration
	AverageHandleTime time.Duration
	OpKindStats       map[driver.OpKind]int64
}

// String renders a human-readable statistics summary, printed by the
// CLI at the end of each schedule.
func (ds DispatcherStats) String() string {
	return fmt.Sprintf(`Schedule statistics:
  Total operations: %d
  Total handling time: %v
  Average handling time: %v
  Operation breakdown:
    begin:  %d
    read:   %d
    write:  %d
    commit: %d`,
		ds.OpsExecuted,
		ds.TotalHandleTime,
		ds.AverageHandleTime,
		ds.OpKindStats[driver.OpBegin],
		ds.OpKindStats[driver.OpRead],
		ds.OpKindStats[driver.OpWrite],
		ds.OpKindStats[driver.OpEnd])
}
