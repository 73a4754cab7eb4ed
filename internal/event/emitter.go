package event

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/motohub/workshop-service/internal/pkg/logger"
	"github.com/motohub/workshop-service/internal/pkg/metrics"
)

const publishTimeout = 3 * time.Second

// Emitter publishes after-commit notifications. Delivery is best effort:
// failures are logged and counted, never returned to the caller.
type Emitter struct {
	pub      Publisher
	producer string
	logger   logger.ZapLogger
}

func NewEmitter(pub Publisher, producer string, log logger.ZapLogger) *Emitter {
	return &Emitter{pub: pub, producer: producer, logger: log}
}

func (e *Emitter) Emit(ctx context.Context, eventType, dealerID, correlationID string, payload interface{}) {
	if e == nil || e.pub == nil {
		return
	}
	env, err := New(eventType, e.producer, dealerID, correlationID, payload)
	if err != nil {
		e.logger.Error("failed to encode event", zap.String("event_type", eventType), zap.Error(err))
		metrics.EventPublishFailures.WithLabelValues(eventType).Inc()
		return
	}

	// The request may be finishing; delivery gets its own deadline.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := e.pub.Publish(pctx, env); err != nil {
		e.logger.Warn("failed to publish event",
			zap.String("event_type", eventType),
			zap.String("event_id", env.EventID),
			zap.String("dealer_id", dealerID),
			zap.Error(err),
		)
		metrics.EventPublishFailures.WithLabelValues(eventType).Inc()
	}
}
