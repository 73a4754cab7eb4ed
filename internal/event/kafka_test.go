package event

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	key     []byte
	value   []byte
	headers []kafka.Header
}

func (f *fakeWriter) Publish(_ context.Context, key, value []byte, headers ...kafka.Header) error {
	f.key, f.value, f.headers = key, value, headers
	return nil
}

func TestKafkaPublisherKeysByDealer(t *testing.T) {
	w := &fakeWriter{}
	env, err := New(InventoryAdjusted, "svc", "dealer-9", "prod-1", InventoryPayload{ProductID: "prod-1"})
	require.NoError(t, err)

	require.NoError(t, NewKafkaPublisher(w).Publish(context.Background(), env))

	assert.Equal(t, []byte("dealer-9"), w.key)
	require.Len(t, w.headers, 2)
	assert.Equal(t, "x-event-type", w.headers[0].Key)
	assert.Equal(t, []byte(InventoryAdjusted), w.headers[0].Value)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(w.value, &decoded))
	assert.Equal(t, env.EventID, decoded.EventID)
}
