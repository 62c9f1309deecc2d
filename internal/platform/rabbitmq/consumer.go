package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"chatrelay/internal/queue"
)

type deliveryTask struct {
	delivery amqp.Delivery
}

func (t *deliveryTask) Payload() []byte {
	return t.delivery.Body
}

func (t *deliveryTask) Ack() error {
	return t.delivery.Ack(false)
}

func (t *deliveryTask) Nack(requeue bool) error {
	return t.delivery.Nack(false, requeue)
}

// Consumer exposes a queue's deliveries as queue.Tasks. Deliveries are
// acknowledged manually by whoever handles the task.
type Consumer struct {
	ch     *amqp.Channel
	tasks  chan queue.Task
	cancel context.CancelFunc
	done   chan struct{}
}

func newConsumer(ctx context.Context, ch *amqp.Channel, deliveries <-chan amqp.Delivery) *Consumer {
	forwardCtx, cancel := context.WithCancel(ctx)
	c := &Consumer{
		ch:     ch,
		tasks:  make(chan queue.Task),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.forward(forwardCtx, deliveries)
	return c
}

func NewConsumer(ctx context.Context, conn *amqp.Connection, queueName string, prefetch int) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consumer channel failed: %w", err)
	}

	if err := declare(ch, queueName); err != nil {
		_ = ch.Close()
		return nil, err
	}

	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("set consumer prefetch failed: %w", err)
		}
	}

	deliveries, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume queue failed: %w", err)
	}

	return newConsumer(ctx, ch, deliveries), nil
}

// forward hands deliveries to Tasks until ctx is cancelled. A delivery nobody
// picked up by then is requeued.
func (c *Consumer) forward(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer close(c.done)
	defer close(c.tasks)
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			select {
			case c.tasks <- &deliveryTask{delivery: d}:
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return
			}
		}
	}
}

func (c *Consumer) Tasks() <-chan queue.Task {
	return c.tasks
}

// Close stops forwarding, waits for the forwarder to exit and closes the
// channel, which returns unacknowledged deliveries to the broker.
func (c *Consumer) Close() error {
	c.cancel()
	<-c.done
	if c.ch == nil {
		return nil
	}
	return c.ch.Close()
}
