package queue

import (
	"context"
	"sync"
)

const DefaultCapacity = 100

type memoryTask struct {
	payload []byte
}

func (t *memoryTask) Payload() []byte {
	return t.payload
}

func (t *memoryTask) Ack() error {
	return nil
}

func (t *memoryTask) Nack(bool) error {
	return nil
}

// InMemoryQueue is a bounded channel. Publishing never blocks: a full queue
// returns ErrQueueFull. Tasks are lost on restart.
type InMemoryQueue struct {
	mu     sync.RWMutex
	tasks  chan Task
	closed bool
}

func NewInMemoryQueue(capacity int) *InMemoryQueue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &InMemoryQueue{
		tasks: make(chan Task, capacity),
	}
}

func (q *InMemoryQueue) Publish(ctx context.Context, payload []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case q.tasks <- &memoryTask{payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *InMemoryQueue) Tasks() <-chan Task {
	return q.tasks
}

func (q *InMemoryQueue) pending() int {
	return len(q.tasks)
}

func (q *InMemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
}
