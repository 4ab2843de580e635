package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/queue"
)

// AMQPPublisher publishes booking events to the booking.events topic
// exchange with the event kind as routing key.  The connection is opened
// lazily and re-opened after a failure.  Messages are persistent.
type AMQPPublisher struct {
	url  string
	log  *zap.Logger
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log.Named("amqp-publisher")}
}

// Publish sends ev.  Errors are returned so the dispatcher can log them;
// they never affect the booking that produced the event.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, queue.ExchangeName, ev.Kind, false, false, pub); err != nil {
		p.resetLocked()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := ch.ExchangeDeclare(queue.ExchangeName, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.log.Info("connected to broker")
	return ch, nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.ch, p.conn = nil, nil
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

// NopPublisher drops broker events when RabbitMQ is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.BookingEvent) error { return nil }
