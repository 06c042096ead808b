package layers

import "errors"

var (
	// ErrClosed indicates an operation on a closed store or adapter.
	ErrClosed = errors.New("layer store is closed")

	// ErrReplay indicates that startup replay failed. There is no safe
	// default state, so Open surfaces it to the process owner.
	ErrReplay = errors.New("replay failed")
)

// StateSource serves point-in-time copies of the projection to a persistence
// adapter. The Store implements it; everything it returns is a deep copy, so
// adapter goroutines can serialize without holding the store lock.
type StateSource interface {
	// Seq returns the current update sequence: the count of events
	// persisted so far. Adapters compare it against their last persisted
	// sequence per entity to skip no-op writes.
	Seq() uint64

	// Snapshot returns a deep copy of the full projection.
	Snapshot() State

	// LayerSnapshot returns a deep copy of one layer, or false if the
	// layer does not exist.
	LayerSnapshot(id string) (*Layer, bool)
}

// Adapter is the durable persistence backend of a store. The journal-based
// and file-based backends are mutually exclusive deployment choices selected
// at construction time, not layered.
//
// All write operations are asynchronous: they enqueue durable work and return
// a WriteResult future. I/O failures are logged by the adapter and recorded
// on the result, but never surface through the store's command API; a failed
// write leaves the adapter's persisted sequence stale so the next write for
// that entity re-attempts.
type Adapter interface {
	// Bind attaches the state source. The store calls it exactly once,
	// before Replay.
	Bind(source StateSource)

	// RecordEvent durably records one committed event.
	RecordEvent(e Event) *WriteResult

	// FlushEntity forces an immediate materialization of one entity.
	FlushEntity(id string) *WriteResult

	// RemoveEntity removes one entity's durable materialization.
	RemoveEntity(id string) *WriteResult

	// Replay streams the durable history, in order, through apply.
	// A non-nil error from apply or from the backend aborts the replay.
	Replay(apply func(Event) error) error

	// Close drains pending writes and releases backend resources.
	Close() error
}
