package layers

import "context"

// WriteResult is the future of one durable write. Commands return before
// their write completes; callers that need durability confirmation wait on
// the result instead.
type WriteResult struct {
	done chan struct{}
	err  error
}

// NewWriteResult returns a pending result. Adapter implementations complete
// it exactly once.
func NewWriteResult() *WriteResult {
	return &WriteResult{done: make(chan struct{})}
}

// CompletedWriteResult returns an already-completed result. Used for writes
// that were skipped (no-op short circuit) or rejected up front.
func CompletedWriteResult(err error) *WriteResult {
	r := NewWriteResult()
	r.Complete(err)
	return r
}

// Complete marks the write finished. Calling it twice panics; a write has
// exactly one outcome.
func (r *WriteResult) Complete(err error) {
	r.err = err
	close(r.done)
}

// Done returns a channel that is closed once the write has finished.
func (r *WriteResult) Done() <-chan struct{} {
	return r.done
}

// Err returns the write's outcome. It is only meaningful after Done is
// closed.
func (r *WriteResult) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until the write finishes or ctx is cancelled.
func (r *WriteResult) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
