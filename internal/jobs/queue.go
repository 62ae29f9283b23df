package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// reconnectDelay is how long Run waits before dialing again after the
// broker drops the connection.
const reconnectDelay = 10 * time.Second

// Queue is a durable RabbitMQ queue carrying Message payloads.
type Queue struct {
	url  string
	name string
	log  *logrus.Logger

	conn    *amqp.Connection
	channel *amqp.Channel
	// consuming is set while Run holds a live consumer.
	consuming atomic.Bool
}

func NewQueue(url, name string, log *logrus.Logger) *Queue {
	return &Queue{url: url, name: name, log: log}
}

// Connect dials the broker, opens a channel and declares the queue.
func (q *Queue) Connect() error {
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(q.name, true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declare queue %s: %w", q.name, err)
	}
	q.conn, q.channel = conn, ch
	return nil
}

func (q *Queue) Close() error {
	if q.conn == nil {
		return nil
	}
	return q.conn.Close()
}

// Publish sends msg as a persistent JSON message.
func (q *Queue) Publish(msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.channel.Publish("", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Run consumes until ctx is cancelled, reconnecting when the broker goes
// away. Deliveries are handled one at a time and acked after handling;
// malformed payloads are rejected without requeue.
func (q *Queue) Run(ctx context.Context, handle func(context.Context, Message) (Result, error)) error {
	for {
		if q.channel == nil {
			if err := q.Connect(); err != nil {
				q.log.WithError(err).Warn("[Run] connect failed, retrying")
				if !sleep(ctx, reconnectDelay) {
					return ctx.Err()
				}
				continue
			}
		}

		err := q.consume(ctx, handle)
		if ctx.Err() != nil {
			q.Close()
			return ctx.Err()
		}
		q.log.WithError(err).Warn("[Run] consumer stopped, reconnecting")
		q.Close()
		q.conn, q.channel = nil, nil
		if !sleep(ctx, reconnectDelay) {
			return ctx.Err()
		}
	}
}

// Consuming reports whether Run currently has a live consumer on the queue.
func (q *Queue) Consuming() bool { return q.consuming.Load() }

var errDeliveriesClosed = errors.New("delivery channel closed")

func (q *Queue) consume(ctx context.Context, handle func(context.Context, Message) (Result, error)) error {
	if err := q.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := q.channel.Consume(q.name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	q.log.WithField("queue", q.name).Info("[consume] waiting for messages")
	q.consuming.Store(true)
	defer q.consuming.Store(false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			q.deliver(ctx, d, handle)
		}
	}
}

func (q *Queue) deliver(ctx context.Context, d amqp.Delivery, handle func(context.Context, Message) (Result, error)) {
	var msg Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		q.log.WithError(err).WithField("body", string(d.Body)).Error("[deliver] bad payload")
		d.Reject(false)
		return
	}
	entry := q.log.WithFields(logrus.Fields{"type": msg.Type, "user_id": msg.UserID, "date": msg.Date})
	res, err := handle(ctx, msg)
	if err != nil {
		entry.WithError(err).Error("[deliver] handling failed")
		d.Reject(false)
		return
	}
	entry.WithFields(logrus.Fields{"frozen": res.Frozen, "skipped": res.Skipped, "failed": res.Failed}).Info("[deliver] done")
	d.Ack(false)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
