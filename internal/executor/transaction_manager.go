// Package executor - Transaction Manager component
// Owns the transaction table and doubles as the wound-wait arbiter:
// every exported method here is the full grant/wait/wound/restart
// decision path for one external operation.
package executor

import (
	"fmt"
	"sort"
)

// TransactionState is the lifecycle state of a Transaction.
type TransactionState int

const (
	StateActive TransactionState = iota
	StateWaiting
	StateAborted
	StateCommitted
)

func (s TransactionState) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateWaiting:
		return "WAITING"
	case StateAborted:
		return "ABORTED"
	case StateCommitted:
		return "COMMITTED"
	default:
		return "UNKNOWN"
	}
}

// OpKind tags a suspended operation so it can be replayed on restart.
type OpKind int

const (
	OpRead OpKind = iota
	OpWrite
	OpCommit
)

type suspendedOp struct {
	kind OpKind
	item string
}

// Transaction is one schedule participant: identity, priority
// timestamp, lifecycle state, and the bookkeeping needed to resume it
// after a wait.
type Transaction struct {
	ID        int
	Timestamp int
	State     TransactionState

	held        map[string]struct{}
	waitOps     []suspendedOp
	waitingItem string // item this txn is blocked on; "" when not waiting
}

// HeldResources returns the items this transaction currently holds a
// lock on, in a deterministic (sorted) order.
func (t *Transaction) HeldResources() []string {
	items := make([]string, 0, len(t.held))
	for item := range t.held {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// EventSink receives arbiter events as they happen, in processing
// order. internal/telemetry.Logger implements this over zerolog; tests
// can substitute a recording fake.
type EventSink interface {
	Begin(txnID, timestamp int)
	Granted(kind OpKind, txnID int, item string)
	Upgraded(txnID int, item string)
	Waited(kind OpKind, txnID int, item string)
	Wounded(victimID, byTxnID int, item string)
	Released(txnID int, item string)
	Committed(txnID int)
	CommitDeferred(txnID int)
	Aborted(txnID int)
	Restarted(txnID int)
	Rejected(op string, txnID int, err error)
}

type noopSink struct{}

func (noopSink) Begin(int, int) {}
func (noopSink) Granted(OpKind, int, string) {}
func (noopSink) Upgraded(int, string) {}
func (noopSink) Waited(OpKind, int, string) {}
func (noopSink) Wounded(int, int, string) {}
func (noopSink) Released(int, string) {}
func (noopSink) Committed(int) {}
func (noopSink) CommitDeferred(int) {}
func (noopSink) Aborted(int) {}
func (noopSink) Restarted(int) {}
func (noopSink) Rejected(string, int, error) {}

// TransactionManager is the transaction table and wound-wait arbiter
// for a single schedule session. Create a fresh one (with a fresh
// LockManager) per schedule; nothing here is reused across schedules.
type TransactionManager struct {
	lockMgr *LockManager
	log     EventSink

	txns   map[int]*Transaction
	nextTS int
}

// NewTransactionManager creates an empty transaction table bound to
// lockMgr. A nil sink discards events.
func NewTransactionManager(lockMgr *LockManager, sink EventSink) *TransactionManager {
	if sink == nil {
		sink = noopSink{}
	}
	return &TransactionManager{
		lockMgr: lockMgr,
		log:     sink,
		txns:    make(map[int]*Transaction),
	}
}

// Begin registers a new transaction with the next schedule-local
// timestamp. A repeated id is a no-op.
func (tm *TransactionManager) Begin(id int) error {
	if _, exists := tm.txns[id]; exists {
		err := NewOperationError("begin", fmt.Sprintf("T%d", id), ErrDuplicateTransaction)
		tm.log.Rejected("begin", id, err)
		return err
	}

	tm.nextTS++
	txn := &Transaction{
		ID:        id,
		Timestamp: tm.nextTS,
		State:     StateActive,
		held:      make(map[string]struct{}),
	}
	tm.txns[id] = txn
	tm.log.Begin(id, txn.Timestamp)
	return nil
}

// Read requests a read lock on item for transaction id.
func (tm *TransactionManager) Read(id int, item string) error {
	txn, ok := tm.txns[id]
	if !ok {
		err := NewOperationError("read", fmt.Sprintf("T%d", id), ErrUnknownTransaction)
		tm.log.Rejected("read", id, err)
		return err
	}
	return tm.doRead(txn, item)
}

func (tm *TransactionManager) doRead(txn *Transaction, item string) error {
	if txn.State != StateActive {
		err := NewOperationError("read", fmt.Sprintf("T%d", txn.ID), ErrInactiveTransaction)
		tm.log.Rejected("read", txn.ID, err)
		return err
	}

	decision, wounded := tm.lockMgr.AcquireRead(item, txn)
	tm.wound(wounded, txn.ID, item)

	switch decision {
	case Wait:
		txn.waitOps = append(txn.waitOps, suspendedOp{kind: OpRead, item: item})
		txn.State = StateWaiting
		txn.waitingItem = item
		tm.log.Waited(OpRead, txn.ID, item)
	default:
		txn.held[item] = struct{}{}
		tm.log.Granted(OpRead, txn.ID, item)
	}
	return nil
}

// Write requests a write lock on item for transaction id.
func (tm *TransactionManager) Write(id int, item string) error {
	txn, ok := tm.txns[id]
	if !ok {
		err := NewOperationError("write", fmt.Sprintf("T%d", id), ErrUnknownTransaction)
		tm.log.Rejected("write", id, err)
		return err
	}
	return tm.doWrite(txn, item)
}

func (tm *TransactionManager) doWrite(txn *Transaction, item string) error {
	if txn.State != StateActive {
		err := NewOperationError("write", fmt.Sprintf("T%d", txn.ID), ErrInactiveTransaction)
		tm.log.Rejected("write", txn.ID, err)
		return err
	}

	decision, wounded := tm.lockMgr.AcquireWrite(item, txn)
	tm.wound(wounded, txn.ID, item)

	switch decision {
	case Wait:
		txn.waitOps = append(txn.waitOps, suspendedOp{kind: OpWrite, item: item})
		txn.State = StateWaiting
		txn.waitingItem = item
		tm.log.Waited(OpWrite, txn.ID, item)
	case Upgraded:
		txn.held[item] = struct{}{}
		tm.log.Upgraded(txn.ID, item)
	default:
		txn.held[item] = struct{}{}
		tm.log.Granted(OpWrite, txn.ID, item)
	}
	return nil
}

// wound aborts every victim of a wound-wait decision and logs it
// against the transaction that triggered it.
func (tm *TransactionManager) wound(victims []*Transaction, byTxnID int, item string) {
	for _, victim := range victims {
		tm.log.Wounded(victim.ID, byTxnID, item)
		tm.abort(victim)
	}
}

// Commit commits transaction id, or defers the commit if it is
// currently WAITING.
func (tm *TransactionManager) Commit(id int) error {
	txn, ok := tm.txns[id]
	if !ok {
		err := NewOperationError("commit", fmt.Sprintf("T%d", id), ErrUnknownTransaction)
		tm.log.Rejected("commit", id, err)
		return err
	}
	return tm.doCommit(txn)
}

func (tm *TransactionManager) doCommit(txn *Transaction) error {
	if txn.State != StateActive {
		txn.waitOps = append(txn.waitOps, suspendedOp{kind: OpCommit})
		tm.log.CommitDeferred(txn.ID)
		return nil
	}

	unlocked := tm.releaseAll(txn)
	txn.State = StateCommitted
	tm.log.Committed(txn.ID)
	tm.restartWaiters(unlocked)
	return nil
}

// abort force-terminates txn: it is only ever called by the arbiter
// itself, as the side effect of a wound.
func (tm *TransactionManager) abort(txn *Transaction) {
	if txn.State != StateActive && txn.State != StateWaiting {
		return
	}

	if txn.State == StateWaiting && txn.waitingItem != "" {
		tm.lockMgr.RemoveWaiter(txn.waitingItem, txn)
	}

	unlocked := tm.releaseAll(txn)
	txn.State = StateAborted
	txn.waitOps = nil
	txn.waitingItem = ""
	tm.log.Aborted(txn.ID)
	tm.restartWaiters(unlocked)
}

// releaseAll drops every lock txn holds, in sorted item order so the
// release sequence is deterministic, and returns the items whose lock
// became UNLOCKED as a result.
func (tm *TransactionManager) releaseAll(txn *Transaction) []string {
	var unlocked []string
	for _, item := range txn.HeldResources() {
		outcome := tm.lockMgr.Release(item, txn)
		tm.log.Released(txn.ID, item)
		if outcome == ReleaseBecameUnlocked {
			unlocked = append(unlocked, item)
		}
	}
	txn.held = make(map[string]struct{})
	return unlocked
}

// restartWaiters restarts the head waiter of each newly-unlocked item,
// at most one per item.
func (tm *TransactionManager) restartWaiters(items []string) {
	for _, item := range items {
		if waiter, ok := tm.lockMgr.PopWaiter(item); ok {
			tm.restart(waiter)
		}
	}
}

// restart moves a WAITING transaction back to ACTIVE and replays its
// suspended operations in FIFO order. If replay blocks again, the
// operation that blocked it is pushed back to the head of the queue
// and replay stops.
func (tm *TransactionManager) restart(txn *Transaction) {
	if txn.State != StateWaiting {
		return
	}

	txn.State = StateActive
	txn.waitingItem = ""
	tm.log.Restarted(txn.ID)

	for len(txn.waitOps) > 0 && txn.State == StateActive {
		op := txn.waitOps[0]
		txn.waitOps = txn.waitOps[1:]

		switch op.kind {
		case OpRead:
			tm.doRead(txn, op.item)
		case OpWrite:
			tm.doWrite(txn, op.item)
		case OpCommit:
			tm.doCommit(txn)
		}

		if txn.State == StateWaiting {
			// doRead/doWrite already appended op to the tail of
			// waitOps on this re-block; move it back to the head so
			// any operation still queued behind it (a deferred
			// commit) stays behind, not in front of it.
			n := len(txn.waitOps)
			reblocked := txn.waitOps[n-1]
			rest := make([]suspendedOp, n-1)
			copy(rest, txn.waitOps[:n-1])
			txn.waitOps = append([]suspendedOp{reblocked}, rest...)
			return
		}
	}
}

// Lookup returns the transaction registered under id, if any. Exposed
// so callers such as the tests can inspect transaction state.
func (tm *TransactionManager) Lookup(id int) (*Transaction, bool) {
	txn, ok := tm.txns[id]
	return txn, ok
}

// TransactionSnapshot is a point-in-time, read-only view of one
// transaction, used for debug-level table dumps.
type TransactionSnapshot struct {
	ID        int
	Timestamp int
	State     TransactionState
	Held      []string
	Pending   int // length of the suspended-operation queue
}

// Snapshot returns every registered transaction in id order.
func (tm *TransactionManager) Snapshot() []TransactionSnapshot {
	ids := make([]int, 0, len(tm.txns))
	for id := range tm.txns {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]TransactionSnapshot, 0, len(ids))
	for _, id := range ids {
		txn := tm.txns[id]
		out = append(out, TransactionSnapshot{
			ID:        txn.ID,
			Timestamp: txn.Timestamp,
			State:     txn.State,
			Held:      txn.HeldResources(),
			Pending:   len(txn.waitOps),
		})
	}
	return out
}
