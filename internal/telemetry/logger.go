// Package telemetry wraps zerolog into the structured event stream the
// arbiter emits, and implements executor.EventSink so the core package
// never imports a logging library directly.
package telemetry

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/Varun-Date98/concurrent-database/internal/executor"
)

// Logger is a zerolog-backed executor.EventSink plus a schedule-end
// banner and optional lock/transaction table dump events.
type Logger struct {
	log   zerolog.Logger
	debug bool
}

// Options configures New.
type Options struct {
	// Out is the destination for console-formatted output. Defaults to
	// os.Stderr when nil.
	Out io.Writer
	// Debug enables debug-level dump events (DumpLockTable /
	// DumpTransactionTable). Off by default to avoid flooding the output.
	Debug bool
	// Quiet drops the minimum level to warn, hiding grant/wait/release
	// chatter but keeping wounds, aborts, and rejections visible.
	Quiet bool
}

// New builds a console-writer Logger: human-readable lines backed by
// structured fields.
func New(opts Options) *Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	if opts.Quiet {
		level = zerolog.WarnLevel
	}

	zl := zerolog.New(zerolog.ConsoleWriter{Out: out}).
		With().
		Timestamp().
		Logger().
		Level(level)

	return &Logger{log: zl, debug: opts.Debug}
}

var _ executor.EventSink = (*Logger)(nil)

func (l *Logger) Begin(txnID, timestamp int) {
	l.log.Info().Int("txn", txnID).Int("timestamp", timestamp).Msg("transaction begun")
}

func (l *Logger) Granted(kind executor.OpKind, txnID int, item string) {
	l.log.Info().Int("txn", txnID).Str("item", item).Str("mode", kindLabel(kind)).Msg("lock granted")
}

func (l *Logger) Upgraded(txnID int, item string) {
	l.log.Info().Int("txn", txnID).Str("item", item).Msg("lock upgraded to write")
}

func (l *Logger) Waited(kind executor.OpKind, txnID int, item string) {
	l.log.Info().Int("txn", txnID).Str("item", item).Str("mode", kindLabel(kind)).Msg("transaction waiting")
}

func (l *Logger) Wounded(victimID, byTxnID int, item string) {
	l.log.Warn().Int("victim", victimID).Int("by", byTxnID).Str("item", item).Msg("transaction wounded")
}

func (l *Logger) Released(txnID int, item string) {
	l.log.Info().Int("txn", txnID).Str("item", item).Msg("lock released")
}

func (l *Logger) Committed(txnID int) {
	l.log.Info().Int("txn", txnID).Msg("transaction committed")
}

func (l *Logger) CommitDeferred(txnID int) {
	l.log.Info().Int("txn", txnID).Msg("commit deferred until active")
}

func (l *Logger) Aborted(txnID int) {
	l.log.Warn().Int("txn", txnID).Msg("transaction aborted")
}

func (l *Logger) Restarted(txnID int) {
	l.log.Info().Int("txn", txnID).Msg("transaction restarted")
}

func (l *Logger) Rejected(op string, txnID int, err error) {
	l.log.Error().Str("op", op).Int("txn", txnID).Err(err).Msg("operation rejected")
}

// EndSchedule logs a banner marking the boundary between schedule
// files.
func (l *Logger) EndSchedule(name string) {
	l.log.Info().Str("schedule", name).Msg("---- end of schedule ----")
}

// DumpLockTable emits one debug event per item. A no-op unless Debug
// was set in Options; the snapshot passed in is built by the caller
// whether or not Debug is set.
func (l *Logger) DumpLockTable(snapshot []executor.LockSnapshot) {
	if !l.debug {
		return
	}
	for _, lock := range snapshot {
		l.log.Debug().
			Str("item", lock.Item).
			Str("mode", lock.Mode.String()).
			Ints("readers", lock.ReadHolders).
			Int("writer", lock.WriteHolder).
			Ints("waiters", lock.Waiters).
			Msg("lock table state")
	}
}

// DumpTransactionTable emits one debug event per transaction.
func (l *Logger) DumpTransactionTable(snapshot []executor.TransactionSnapshot) {
	if !l.debug {
		return
	}
	for _, txn := range snapshot {
		l.log.Debug().
			Int("txn", txn.ID).
			Int("timestamp", txn.Timestamp).
			Str("state", txn.State.String()).
			Strs("held", txn.Held).
			Int("pending", txn.Pending).
			Msg("transaction table state")
	}
}

func kindLabel(kind executor.OpKind) string {
	switch kind {
	case executor.OpRead:
		return "read"
	case executor.OpWrite:
		return "write"
	default:
		return "commit"
	}
}
