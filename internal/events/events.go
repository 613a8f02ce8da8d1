// Package events publishes committed ledger changes for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-stock-service/pkg/broker"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CountRecorded     = "stock.count_recorded"
	MovementApplied   = "stock.movement_applied"
	TransferCreated   = "transfer.created"
	TransferCompleted = "transfer.completed"
	TransferCancelled = "transfer.cancelled"
	VarianceApproved  = "variance.approved"
	BlockChanged      = "block.changed"
)

type Event struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Key       string      `json:"key"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

func New(eventType, key string, payload interface{}) Event {
	return Event{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Key:       key,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher is called after the unit of work commits. Failures are logged
// by the implementation and never undo the committed change.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type Producer interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type KafkaPublisher struct {
	producer Producer
	timeout  time.Duration
	logger   logger.ZapLogger
}

var _ Producer = (*broker.KafkaProducer)(nil)

func NewKafkaPublisher(p Producer, timeout time.Duration, log logger.ZapLogger) *KafkaPublisher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &KafkaPublisher{producer: p, timeout: timeout, logger: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("event_type", e.EventType), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.producer.Publish(ctx, e.Key, data); err != nil {
		p.logger.Warn("failed to publish event",
			zap.String("event_type", e.EventType),
			zap.String("key", e.Key),
			zap.Error(err),
		)
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
