package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"chatrelay/internal/model"
	"chatrelay/internal/queue"
)

// QueueDispatcher hands summary tasks to a queue for SummaryWorker to pick up.
type QueueDispatcher struct {
	publisher queue.Publisher
}

func NewQueueDispatcher(publisher queue.Publisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, task model.SummaryTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal summary task failed: %w", err)
	}
	if err := d.publisher.Publish(ctx, payload); err != nil {
		return fmt.Errorf("publish summary task failed: %w", err)
	}
	return nil
}

// InlineDispatcher runs the summarization on the caller's goroutine, blocking
// the chat request until it finishes or the worker timeout expires.
type InlineDispatcher struct {
	worker *SummaryWorker
}

func NewInlineDispatcher(worker *SummaryWorker) *InlineDispatcher {
	return &InlineDispatcher{worker: worker}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, task model.SummaryTask) error {
	return d.worker.Process(ctx, task)
}
