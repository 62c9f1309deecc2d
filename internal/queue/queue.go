// Package queue defines the task plumbing between the chat request path and
// background workers, plus an in-process implementation.
package queue

import (
	"context"
	"errors"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

type Task interface {
	Payload() []byte

	Ack() error

	// Nack drops the task, or puts it back when requeue is set and the
	// backend supports it.
	Nack(requeue bool) error
}

type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

type Receiver interface {
	Tasks() <-chan Task
}
