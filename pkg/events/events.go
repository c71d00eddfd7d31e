// Package events publishes booking events to an AMQP queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ssargent/vifgate/pkg/codec"
)

// BookingCommitted is published after the host accepts a q31 commit.
type BookingCommitted struct {
	Site              string    `json:"site"`
	PacketID          string    `json:"packet_id"`
	BookingKey        string    `json:"booking_key,omitempty"`
	TransactionNumber int       `json:"transaction_number,omitempty"`
	Key               string    `json:"key,omitempty"`
	AlternateKey      string    `json:"alternate_key,omitempty"`
	AmountPaid        float64   `json:"amount_paid"`
	CommittedAt       time.Time `json:"committed_at"`
}

// NewBookingCommitted reads the event out of the committed q31 record and
// the host response. Either may be nil or lack the fields it looks for.
func NewBookingCommitted(site string, q31 *codec.Record, resp *codec.Message, at time.Time) BookingCommitted {
	ev := BookingCommitted{Site: site, CommittedAt: at.UTC()}
	if resp != nil {
		ev.PacketID = resp.PacketID()
		if p31, ok := resp.First("p31"); ok {
			if v, ok := p31.Get("transaction_number"); ok {
				ev.TransactionNumber, _ = v.(int)
			}
			ev.Key, _ = p31.Field(3)
			ev.AlternateKey, _ = p31.Field(4)
		}
	}
	if q31 != nil {
		ev.BookingKey, _ = q31.Field(5)
		ev.AmountPaid = q31.Payments().TotalAmountPaid()
	}
	return ev
}

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends events to one durable queue over a single channel. A nil
// *Publisher discards events.
type Publisher struct {
	queue string

	mu   sync.Mutex
	ch   channel
	conn *amqp.Connection
}

// Dial connects to the broker and declares queue.
func Dial(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare %s: %w", queue, err)
	}
	return &Publisher{queue: queue, ch: ch, conn: conn}, nil
}

// Queue returns the routing key events are published under.
func (p *Publisher) Queue() string { return p.queue }

// PublishBookingCommitted publishes ev as persistent JSON.
func (p *Publisher) PublishBookingCommitted(ctx context.Context, ev BookingCommitted) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         "booking.committed",
		MessageId:    ev.PacketID,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
