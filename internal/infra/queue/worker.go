package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/coach-outreach/internal/entity"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

// Worker drains q.outreach-log into the log store.
type Worker struct {
	Channel *amqp.Channel
	Store   usecase.OutreachLogWriter
	Logger  *zap.Logger
}

func NewWorker(ch *amqp.Channel, store usecase.OutreachLogWriter, logger *zap.Logger) *Worker {
	return &Worker{Channel: ch, Store: store, Logger: logger.Named("log-worker")}
}

// Start consumes until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context) error {
	msgs, err := w.Channel.ConsumeWithContext(ctx,
		QueueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	w.Logger.Info("consuming", zap.String("queue", QueueName))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.deliver(ctx, d)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, d amqp.Delivery) {
	if err := w.Handle(ctx, d.Body); err != nil {
		w.Logger.Error("log entry rejected", zap.Error(err))
		d.Nack(false, false)
		return
	}
	d.Ack(false)
}

// Handle decodes one envelope and appends it to the store.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case EntrySent:
		var sent entity.SentEmail
		if err := json.Unmarshal(env.Payload, &sent); err != nil {
			return fmt.Errorf("invalid %s payload: %w", env.Type, err)
		}
		return w.Store.AppendSent(ctx, sent)
	case EntryDM:
		var dm entity.DMRecord
		if err := json.Unmarshal(env.Payload, &dm); err != nil {
			return fmt.Errorf("invalid %s payload: %w", env.Type, err)
		}
		return w.Store.AppendDM(ctx, dm)
	case EntryResponse:
		var resp entity.Response
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return fmt.Errorf("invalid %s payload: %w", env.Type, err)
		}
		return w.Store.AppendResponse(ctx, resp)
	default:
		return fmt.Errorf("unknown entry type %q", env.Type)
	}
}
