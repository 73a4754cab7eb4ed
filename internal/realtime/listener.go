package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/motohub/workshop-service/internal/event"
	"github.com/motohub/workshop-service/internal/pkg/logger"
)

// MessageReader is satisfied by broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Listener relays events from the bus to the local hub, so every instance
// can serve every dealer's subscribers.
type Listener struct {
	consumer MessageReader
	pub      event.Publisher
	logger   logger.ZapLogger
}

func NewListener(consumer MessageReader, pub event.Publisher, log logger.ZapLogger) *Listener {
	return &Listener{consumer: consumer, pub: pub, logger: log}
}

func (l *Listener) Start(ctx context.Context) {
	l.logger.Info("Starting realtime Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping realtime Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *Listener) processMessage(ctx context.Context, value []byte) {
	var env event.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}
	if env.DealerID == "" {
		l.logger.Warn("Dropping event without dealer", zap.String("event_id", env.EventID))
		return
	}
	if err := l.pub.Publish(ctx, env); err != nil {
		l.logger.Error("Failed to relay event", zap.String("event_id", env.EventID), zap.Error(err))
	}
}
