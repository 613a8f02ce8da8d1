package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const CountScanned = "CountScanned"

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type ScanListener struct {
	consumer MessageReader
	uc       stock.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewScanListener(consumer MessageReader, uc stock.UseCase, logger logger.ZapLogger) *ScanListener {
	return &ScanListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *ScanListener) Start(ctx context.Context) {
	l.logger.Info("Starting scanner Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping scanner Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type CountScannedEvent struct {
	EventID   string              `json:"event_id"`
	EventType string              `json:"event_type"`
	Payload   CountScannedPayload `json:"payload"`
	Timestamp time.Time           `json:"timestamp"`
}

type CountScannedPayload struct {
	QRCode      string `json:"qr_code"`
	Unrestrict  int64  `json:"unrestrict"`
	FOC         int64  `json:"foc"`
	RFB         int64  `json:"rfb"`
	CountType   string `json:"count_type"`
	Notes       string `json:"notes"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

func (l *ScanListener) processMessage(ctx context.Context, value []byte) {
	var event CountScannedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != CountScanned {
		return
	}

	p := event.Payload
	l.logger.Debug("Processing CountScanned event",
		zap.String("event_id", event.EventID),
		zap.String("qr_code", p.QRCode),
	)

	id, err := l.uc.RecordCount(ctx, &dto.RecordCountInput{
		QRCode:      p.QRCode,
		Quantities:  model.Quantities{Unrestrict: p.Unrestrict, FOC: p.FOC, RFB: p.RFB},
		CountType:   model.CountType(p.CountType),
		Notes:       p.Notes,
		Description: p.Description,
		Location:    p.Location,
	})
	if err != nil {
		l.logger.Error("Failed to record scanned count",
			zap.String("event_id", event.EventID),
			zap.String("qr_code", p.QRCode),
			zap.Error(err),
		)
		return
	}
	l.logger.Info("Recorded scanned count", zap.String("qr_code", p.QRCode), zap.Int64("count_id", id))
}
