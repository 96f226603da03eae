// Package events delivers record.created and record.verified notifications
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/AlexZinkM/did-card/internal/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// channel is the part of *amqp.Channel the publisher uses
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes events to a topic exchange, routed by event type
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      *logrus.Logger
}

// NewRabbitPublisher connects to amqpURL and declares the exchange
func NewRabbitPublisher(amqpURL, exchange string, log *logrus.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p, err := newRabbitPublisher(ch, exchange, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newRabbitPublisher(ch channel, exchange string, log *logrus.Logger) (*RabbitPublisher, error) {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &RabbitPublisher{ch: ch, exchange: exchange, log: log}, nil
}

// Publish sends event as a persistent JSON message with the event type as routing key
func (p *RabbitPublisher) Publish(ctx context.Context, event model.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    event.OccurredAt,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.RecordID + "/" + event.Type,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	p.log.WithFields(logrus.Fields{"type": event.Type, "id": event.RecordID}).Debug("event published")
	return nil
}

// Close closes the channel and the connection
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher writes events to the log when no broker is configured
type LogPublisher struct {
	log *logrus.Logger
}

// NewLogPublisher creates a publisher that only logs
func NewLogPublisher(log *logrus.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event model.Event) error {
	entry := p.log.WithFields(logrus.Fields{
		"type":    event.Type,
		"id":      event.RecordID,
		"account": event.Account,
		"tx":      event.TxHash,
	})
	if event.Value != nil {
		entry = entry.WithField("value", *event.Value)
	}
	entry.Info("event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
