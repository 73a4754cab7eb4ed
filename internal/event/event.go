// Package event defines the domain events pushed to realtime subscribers.
package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	RequisitionCreated       = "requisition:created"
	RequisitionApproved      = "requisition:approved"
	RequisitionRejected      = "requisition:rejected"
	RequisitionStatusChanged = "requisition:status_changed"
	InventoryAdjusted        = "inventory:adjusted"
	InventoryReceived        = "inventory:received"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	DealerID      string          `json:"dealer_id"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// New builds a version 1 envelope around payload.
func New(eventType, producer, dealerID, correlationID string, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		DealerID:      dealerID,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

type RequisitionPayload struct {
	RequisitionID      string  `json:"requisition_id"`
	RequisitionGroupID string  `json:"requisition_group_id"`
	JobID              string  `json:"job_id"`
	JobNumber          string  `json:"job_number,omitempty"`
	TechnicianID       *string `json:"technician_id"`
	DealerID           string  `json:"dealer_id"`
	ProductID          string  `json:"product_id,omitempty"`
	Quantity           int     `json:"quantity,omitempty"`
	Status             string  `json:"status"`
	PreviousStatus     string  `json:"previous_status,omitempty"`
	ActorID            string  `json:"actor_id,omitempty"`
	Reason             *string `json:"reason,omitempty"`
}

type InventoryPayload struct {
	ProductID      string  `json:"product_id"`
	DealerID       string  `json:"dealer_id"`
	BatchID        *string `json:"batch_id,omitempty"`
	MovementID     string  `json:"movement_id"`
	QuantityChange int     `json:"quantity_change"`
	QuantityBefore int     `json:"quantity_before"`
	QuantityAfter  int     `json:"quantity_after"`
	StockStatus    string  `json:"stock_status"`
	ActorID        string  `json:"actor_id,omitempty"`
}

// Publisher delivers envelopes to subscribers.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}
