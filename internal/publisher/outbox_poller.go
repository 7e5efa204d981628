package publisher

import (
	"context"
	"io"
	"time"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/repository"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer is the subset of kafka.Writer the poller needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller drains outbox_events and publishes them to the order-events
// topic so fulfillment tracking can react to confirmed orders.
type OutboxPoller struct {
	tick   time.Duration
	batch  int
	repo   repository.OutboxRepository
	writer Writer
	logger *zap.Logger
}

func NewOutboxPoller(repo repository.OutboxRepository, logger *zap.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		tick:   time.Second,
		batch:  100,
		repo:   repo,
		writer: w,
		logger: logger,
	}
}

// Close releases the underlying Kafka writer.
func (p *OutboxPoller) Close() error {
	if c, ok := p.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.UnprocessedEvents(ctx, p.batch)
	if err != nil {
		p.logger.Error("outbox_fetch_failed", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.logger.Error("outbox_publish_failed",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.logger.Error("outbox_mark_processed_failed",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id for per-order ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
