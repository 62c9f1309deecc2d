package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"chatrelay/internal/conversation"
	"chatrelay/internal/model"
	"chatrelay/internal/queue"
)

type Summarizer interface {
	Summarize(ctx context.Context, messages []model.ChatMessage) conversation.SummaryResult
}

type SummaryStore interface {
	UpdateSummary(conversationID uint, summary string, messageCount int) (bool, error)
}

// SummaryWorker consumes summary tasks with a fixed number of goroutines and
// stores each successful summary on its conversation.
type SummaryWorker struct {
	receiver   queue.Receiver
	summarizer Summarizer
	store      SummaryStore
	workers    int
	timeout    time.Duration
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSummaryWorker(
	receiver queue.Receiver,
	summarizer Summarizer,
	store SummaryStore,
	workers int,
	timeout time.Duration,
	logger *zap.Logger,
) *SummaryWorker {
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SummaryWorker{
		receiver:   receiver,
		summarizer: summarizer,
		store:      store,
		workers:    workers,
		timeout:    timeout,
		logger:     logger.Named("summary_worker"),
	}
}

func (w *SummaryWorker) Start(ctx context.Context) {
	if w.cancel != nil {
		return
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.loop(workerCtx)
		}()
	}
}

func (w *SummaryWorker) loop(ctx context.Context) {
	tasks := w.receiver.Tasks()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			w.handleTask(ctx, task)
		}
	}
}

func (w *SummaryWorker) handleTask(ctx context.Context, task queue.Task) {
	var payload model.SummaryTask
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		w.logger.Warn("decode summary task failed", zap.Error(err))
		_ = task.Nack(false)
		return
	}

	if err := w.Process(ctx, payload); err != nil {
		_ = task.Nack(false)
		return
	}
	_ = task.Ack()
}

// Process summarizes one conversation under the worker's timeout and stores
// the result. A failed summarization leaves the previous summary in place.
func (w *SummaryWorker) Process(ctx context.Context, task model.SummaryTask) error {
	log := w.logger.With(
		zap.Uint("conversation_id", task.ConversationID),
		zap.Int("messages", len(task.Messages)),
	)

	summarizeCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	started := time.Now()
	result := w.summarizer.Summarize(summarizeCtx, task.Messages)
	if !result.OK() {
		log.Warn("summarization failed", zap.Error(result.Err), zap.Duration("elapsed", time.Since(started)))
		return fmt.Errorf("summarize conversation %d: %w", task.ConversationID, result.Err)
	}

	stored, err := w.store.UpdateSummary(task.ConversationID, result.Summary, len(task.Messages))
	if err != nil {
		log.Error("store summary failed", zap.Error(err))
		return err
	}
	if !stored {
		log.Info("summary superseded by a longer history, discarded")
		return nil
	}

	log.Info("conversation summarized",
		zap.Int("summary_chars", len(result.Summary)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (w *SummaryWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
