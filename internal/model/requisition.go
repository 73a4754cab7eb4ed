package model

import "time"

type RequisitionStatus string

const (
	RequisitionPending  RequisitionStatus = "pending"
	RequisitionApproved RequisitionStatus = "approved"
	RequisitionRejected RequisitionStatus = "rejected"
)

// JobCard is a workshop service order. It carries the dealer that owns every
// requisition raised against it.
type JobCard struct {
	BaseModel
	DealerID     string  `db:"dealer_id" json:"dealer_id"`
	JobNumber    string  `db:"job_number" json:"job_number"`
	TechnicianID *string `db:"technician_id" json:"technician_id"`
	Status       string  `db:"status" json:"status"`
}

type Requisition struct {
	BaseModel
	JobCardID   string            `db:"job_card_id" json:"job_card_id"`
	GroupID     string            `db:"group_id" json:"group_id"`
	ProductID   string            `db:"product_id" json:"product_id"`
	Quantity    int               `db:"quantity" json:"quantity"`
	Status      RequisitionStatus `db:"status" json:"status"`
	RequestedBy *string           `db:"requested_by" json:"requested_by"`
	ApprovedBy  *string           `db:"approved_by" json:"approved_by"`
	ApprovedAt  *time.Time        `db:"approved_at" json:"approved_at"`
	Reason      *string           `db:"reason" json:"reason"`
	Notes       *string           `db:"notes" json:"notes"`

	// DealerID is joined from the job card, it is not a column of the table.
	DealerID string `db:"dealer_id" json:"dealer_id"`
}

// RequisitionContext is what realtime subscribers need to route a
// requisition event.
type RequisitionContext struct {
	RequisitionID string  `db:"requisition_id"`
	GroupID       string  `db:"group_id"`
	JobCardID     string  `db:"job_card_id"`
	JobNumber     string  `db:"job_number"`
	TechnicianID  *string `db:"technician_id"`
	DealerID      string  `db:"dealer_id"`
}
