package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/saulo-duarte/engmcq-web/internal/config"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// EventPublisher sends activity events to a topic exchange, routed by event
// type. With no URI configured it only logs.
type EventPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool
}

func NewEventPublisher(rabbitURI, exchange string) (*EventPublisher, error) {
	if rabbitURI == "" {
		logrus.Warn("RabbitMQ URI is empty, event publishing is disabled")
		return &EventPublisher{exchange: exchange}, nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &EventPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		enabled:  true,
	}, nil
}

func (p *EventPublisher) Publish(ctx context.Context, e Event) error {
	if !p.enabled {
		config.WithContext(ctx).Debugf("Event publishing is disabled, skipping event: %s", e.Type)
		return nil
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(pubCtx, p.exchange, string(e.Type), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.ID,
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *EventPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing RabbitMQ channel")
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}

// Emit publishes e and only logs a failure; activity events never fail the
// request that produced them.
func Emit(ctx context.Context, p Publisher, t EventType, userID string, data map[string]any) {
	if p == nil {
		return
	}
	e := NewEvent(t, userID, data)
	if err := p.Publish(ctx, e); err != nil {
		config.WithContext(ctx).WithError(err).WithField("event", t).Warn("Failed to publish activity event")
	}
}
