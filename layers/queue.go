package layers

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// WriteQueue serializes durable writes per entity id. Jobs enqueued under the
// same id run strictly in enqueue order on a single drainer goroutine; jobs
// under distinct ids are independent. This is what makes concurrent
// persistence attempts for the same entity safe without cross-entity locking.
type WriteQueue struct {
	lanes  *xsync.MapOf[string, *writeLane]
	logger Logger
	wg     sync.WaitGroup
}

type writeLane struct {
	mu      sync.Mutex
	pending []laneJob
	active  bool
}

type laneJob struct {
	op     func() error
	result *WriteResult
}

// NewWriteQueue returns a queue that reports failed jobs through logger.
// A nil logger disables logging.
func NewWriteQueue(logger Logger) *WriteQueue {
	if logger == nil {
		logger = NoOpLogger{}
	}
	return &WriteQueue{
		lanes:  xsync.NewMapOf[string, *writeLane](),
		logger: logger,
	}
}

// Enqueue schedules op on the lane for id and returns its result future.
// The first job on an idle lane starts a drainer goroutine; the drainer
// exits once the lane runs dry.
func (q *WriteQueue) Enqueue(id string, op func() error) *WriteResult {
	result := NewWriteResult()
	lane, _ := q.lanes.LoadOrCompute(id, func() *writeLane {
		return &writeLane{}
	})

	lane.mu.Lock()
	lane.pending = append(lane.pending, laneJob{op: op, result: result})
	start := !lane.active
	if start {
		lane.active = true
	}
	lane.mu.Unlock()

	if start {
		q.wg.Add(1)
		go q.drain(id, lane)
	}
	return result
}

func (q *WriteQueue) drain(id string, lane *writeLane) {
	defer q.wg.Done()
	for {
		lane.mu.Lock()
		if len(lane.pending) == 0 {
			lane.active = false
			lane.mu.Unlock()
			return
		}
		job := lane.pending[0]
		lane.pending = lane.pending[1:]
		lane.mu.Unlock()

		err := job.op()
		if err != nil {
			q.logger.Error(context.Background(), "durable write failed",
				"entity", id,
				"error", err)
		}
		job.result.Complete(err)
	}
}

// Drain blocks until every lane has run dry. Enqueue must not be called
// concurrently with Drain.
func (q *WriteQueue) Drain() {
	q.wg.Wait()
}
