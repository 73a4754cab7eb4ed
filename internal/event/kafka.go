package event

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is satisfied by broker.KafkaProducer.
type MessageWriter interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

type KafkaPublisher struct {
	w MessageWriter
}

func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

// Publish keys messages by dealer so one dealer's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.w.Publish(ctx, []byte(env.DealerID), b,
		kafka.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}
