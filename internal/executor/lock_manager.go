// Package executor - Lock Manager component
// Implements per-item lock state and the primitive grant/wait/wound
// decisions of two-phase locking under the wound-wait policy.
package executor

import (
	"sort"
	"sync"
)

// LockMode is the mode an item's lock is currently held in.
type LockMode int

const (
	LockUnlocked LockMode = iota
	LockRead
	LockWrite
)

func (m LockMode) String() string {
	switch m {
	case LockRead:
		return "READ"
	case LockWrite:
		return "WRITE"
	default:
		return "UNLOCKED"
	}
}

// Decision is what an acquire call asks the arbiter to do.
type Decision int

const (
	Granted Decision = iota
	Upgraded
	Wait
)

// ReleaseOutcome is what a release call found the lock's mode to be
// afterward.
type ReleaseOutcome int

const (
	ReleaseNotHeld ReleaseOutcome = iota
	ReleaseStillHeld
	ReleaseBecameUnlocked
)

// itemLock is the lock record for one data item. ReadHolders and
// Waiters are ordered slices, not sets: acquire_write's wound scan
// depends on read-holder order, and waiter restart depends on FIFO
// waiter order.
type itemLock struct {
	item        string
	mode        LockMode
	readHolders []*Transaction
	writeHolder *Transaction
	waiters     []*Transaction
}

// LockManager is the lock table: a mapping from item name to lock
// record. An absent entry is equivalent to an UNLOCKED lock.
//
// LockManager never aborts a transaction itself. When a newcomer
// wounds a holder, the call returns the wounded transaction(s) to the
// caller (the TransactionManager), which performs the actual abort.
// This keeps the lock table a pure data structure with no dependency
// on the arbiter.
type LockManager struct {
	locks map[string]*itemLock
	mu    sync.Mutex
}

// NewLockManager creates an empty lock table.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*itemLock)}
}

func (lm *LockManager) getOrCreate(item string) *itemLock {
	lock, ok := lm.locks[item]
	if !ok {
		lock = &itemLock{item: item}
		lm.locks[item] = lock
	}
	return lock
}

// AcquireRead grants, queues, or wounds for a read request on item by
// txn. The second return value lists any transaction txn wounded to
// get the grant.
func (lm *LockManager) AcquireRead(item string, txn *Transaction) (Decision, []*Transaction) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lock := lm.getOrCreate(item)

	switch lock.mode {
	case LockUnlocked:
		lock.mode = LockRead
		lock.readHolders = append(lock.readHolders, txn)
		return Granted, nil

	case LockRead:
		if !holds(lock.readHolders, txn) {
			lock.readHolders = append(lock.readHolders, txn)
		}
		return Granted, nil

	default: // LockWrite
		holder := lock.writeHolder
		if holder == txn {
			// Self-write law: already the exclusive holder.
			return Granted, nil
		}
		if holder.Timestamp < txn.Timestamp {
			// holder is older (higher priority): txn waits.
			lock.waiters = append(lock.waiters, txn)
			return Wait, nil
		}
		// holder is younger (or tied, which counts as younger):
		// wound it and take the lock as READ.
		lock.writeHolder = nil
		lock.mode = LockRead
		lock.readHolders = append(lock.readHolders, txn)
		return Granted, []*Transaction{holder}
	}
}

// AcquireWrite grants, queues, or wounds for a write request on item
// by txn, including upgrade of a sole read lock.
func (lm *LockManager) AcquireWrite(item string, txn *Transaction) (Decision, []*Transaction) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lock := lm.getOrCreate(item)

	switch lock.mode {
	case LockUnlocked:
		lock.mode = LockWrite
		lock.writeHolder = txn
		return Granted, nil

	case LockRead:
		wounded, kept := scanAndWound(lock.readHolders, txn)
		lock.readHolders = kept

		switch {
		case len(lock.readHolders) == 0:
			lock.mode = LockWrite
			lock.writeHolder = txn
			return Granted, wounded
		case len(lock.readHolders) == 1 && lock.readHolders[0] == txn:
			lock.readHolders = nil
			lock.mode = LockWrite
			lock.writeHolder = txn
			return Upgraded, wounded
		default:
			lock.waiters = append(lock.waiters, txn)
			return Wait, wounded
		}

	default: // LockWrite
		holder := lock.writeHolder
		if holder == txn {
			return Granted, nil
		}
		if holder.Timestamp < txn.Timestamp {
			lock.waiters = append(lock.waiters, txn)
			return Wait, nil
		}
		lock.writeHolder = txn
		return Granted, []*Transaction{holder}
	}
}

// scanAndWound walks read holders in their current order, wounding
// every younger holder (other than txn itself) and stopping at the
// first strictly older holder it meets, since an older holder means
// txn would have to wait regardless of how much further wounding
// happens.
func scanAndWound(holders []*Transaction, txn *Transaction) (wounded, kept []*Transaction) {
	stopped := false
	for _, h := range holders {
		switch {
		case stopped:
			kept = append(kept, h)
		case h == txn:
			kept = append(kept, h)
		case h.Timestamp > txn.Timestamp:
			wounded = append(wounded, h)
		default:
			kept = append(kept, h)
			stopped = true
		}
	}
	return wounded, kept
}

func holds(holders []*Transaction, txn *Transaction) bool {
	for _, h := range holders {
		if h == txn {
			return true
		}
	}
	return false
}

// Release drops txn's hold on item, if any.
func (lm *LockManager) Release(item string, txn *Transaction) ReleaseOutcome {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lock, ok := lm.locks[item]
	if !ok {
		return ReleaseNotHeld
	}

	switch lock.mode {
	case LockRead:
		idx := indexOf(lock.readHolders, txn)
		if idx == -1 {
			return ReleaseNotHeld
		}
		lock.readHolders = append(lock.readHolders[:idx], lock.readHolders[idx+1:]...)
		if len(lock.readHolders) == 0 {
			lock.mode = LockUnlocked
		}
	case LockWrite:
		if lock.writeHolder != txn {
			return ReleaseNotHeld
		}
		lock.writeHolder = nil
		lock.mode = LockUnlocked
	default:
		return ReleaseNotHeld
	}

	if lock.mode == LockUnlocked {
		return ReleaseBecameUnlocked
	}
	return ReleaseStillHeld
}

func indexOf(holders []*Transaction, txn *Transaction) int {
	for i, h := range holders {
		if h == txn {
			return i
		}
	}
	return -1
}

// PopWaiter removes and returns the head of item's FIFO waiter queue,
// if any. Called by the arbiter after a release to restart the next
// blocked transaction.
func (lm *LockManager) PopWaiter(item string) (*Transaction, bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lock, ok := lm.locks[item]
	if !ok || len(lock.waiters) == 0 {
		return nil, false
	}
	head := lock.waiters[0]
	lock.waiters = lock.waiters[1:]
	return head, true
}

// RemoveWaiter removes txn from item's waiter queue without granting
// it anything. Used when txn is wounded while it sits in that queue.
func (lm *LockManager) RemoveWaiter(item string, txn *Transaction) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lock, ok := lm.locks[item]
	if !ok {
		return
	}
	for i, w := range lock.waiters {
		if w == txn {
			lock.waiters = append(lock.waiters[:i], lock.waiters[i+1:]...)
			return
		}
	}
}

// LockSnapshot is a point-in-time, read-only view of one item's lock
// record, used for debug-level table dumps.
type LockSnapshot struct {
	Item        string
	Mode        LockMode
	ReadHolders []int
	WriteHolder int // 0 when unheld
	Waiters     []int
}

// Snapshot returns a stable-ordered dump of every item the lock table
// has ever held an entry for, including ones that have since become
// UNLOCKED.
func (lm *LockManager) Snapshot() []LockSnapshot {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	items := make([]string, 0, len(lm.locks))
	for item := range lm.locks {
		items = append(items, item)
	}
	sort.Strings(items)

	out := make([]LockSnapshot, 0, len(items))
	for _, item := range items {
		lock := lm.locks[item]
		snap := LockSnapshot{Item: item, Mode: lock.mode}
		for _, h := range lock.readHolders {
			snap.ReadHolders = append(snap.ReadHolders, h.ID)
		}
		if lock.writeHolder != nil {
			snap.WriteHolder = lock.writeHolder.ID
		}
		for _, w := range lock.waiters {
			snap.Waiters = append(snap.Waiters, w.ID)
		}
		out = append(out, snap)
	}
	return out
}
