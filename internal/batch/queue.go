package batch

import (
	"sync"

	"mediacrate/internal/model"
)

// queueItem is either a job or a stop sentinel telling one worker to exit.
type queueItem struct {
	job  model.Job
	stop bool
}

// jobQueue is an unbounded FIFO with a blocking pop. Unbounded matters:
// pushes (requeues, late enqueues, sentinels) must never block a worker
// that is holding the control plane's attention.
type jobQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []queueItem
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *jobQueue) push(item queueItem) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until an item is available. Shutdown is by sentinel, exactly
// one per worker, so pop needs no timeout or close path.
func (q *jobQueue) pop() queueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item
}

func (q *jobQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
