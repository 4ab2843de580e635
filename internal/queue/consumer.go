package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const journalQueueName = "booking.journal"

// Consumer listens on the booking.journal queue, bound to every routing
// key of the booking exchange, and appends each event as one line to a
// journal file.
type Consumer struct {
	url  string
	path string
	log  *zap.Logger
}

// NewConsumer returns a consumer writing to path (logs/booking.log when
// empty).
func NewConsumer(url, path string, log *zap.Logger) *Consumer {
	if path == "" {
		path = filepath.Join("logs", "booking.log")
	}
	return &Consumer{url: url, path: path, log: log.Named("booking-consumer")}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures are retried with exponential backoff capped at 30s; a message
// that cannot be handled is rejected without requeue so the loop keeps
// moving.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended; reconnecting", zap.Error(err))
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set QoS failed", zap.Error(err))
	}
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(journalQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(journalQueueName, "#", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, journalQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.handleMessage(d.Body); err != nil {
			c.log.Error("handle message failed", zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders an event as a single journal line.
func FormatLine(ev BookingEvent) string {
	slots := "[]"
	if len(ev.Slots) > 0 {
		slots = fmt.Sprintf("[%s]", strings.Join(ev.Slots, ","))
	}
	line := fmt.Sprintf("[%s] %s | booking_id=%d | user_id=%d | turf_id=%d | status=%s | total=%d cents | slots=%s",
		ev.OccurredAt, ev.Kind, ev.BookingID, ev.UserID, ev.TurfID, ev.Status, ev.TotalPriceCents, slots)
	if ev.Reason != "" {
		line += fmt.Sprintf(" | reason=%q", ev.Reason)
	}
	return line + "\n"
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
