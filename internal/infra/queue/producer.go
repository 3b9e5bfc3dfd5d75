package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

type EntryType string

const (
	EntrySent     EntryType = "sent_email"
	EntryDM       EntryType = "dm"
	EntryResponse EntryType = "response"
)

// Envelope is the message body on q.outreach-log.
type Envelope struct {
	Type    EntryType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Producer implements the outreach log writer by publishing to RabbitMQ.
type Producer struct {
	ch publisher
}

func NewProducer(ch *amqp.Channel) *Producer {
	return &Producer{ch: ch}
}

func (p *Producer) AppendSent(ctx context.Context, sent entity.SentEmail) error {
	return p.publish(ctx, EntrySent, sent)
}

func (p *Producer) AppendDM(ctx context.Context, dm entity.DMRecord) error {
	return p.publish(ctx, EntryDM, dm)
}

func (p *Producer) AppendResponse(ctx context.Context, resp entity.Response) error {
	return p.publish(ctx, EntryResponse, resp)
}

func (p *Producer) publish(ctx context.Context, typ EntryType, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", typ, err)
	}
	body, err := json.Marshal(Envelope{Type: typ, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         string(typ),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", typ, err)
	}
	return nil
}
