package dto

type UpdateStatusInput struct {
	DealerID      string
	RequisitionID string
	Status        string
	Reason        *string
	ActorID       string
}

type CreateItem struct {
	ProductID string
	Quantity  int
	Notes     *string
}

type CreateRequisitionsInput struct {
	DealerID    string
	JobCardID   string
	RequestedBy string
	Items       []CreateItem
}

type UpdateStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Reason *string `json:"reason"`
}

type CreateItemRequest struct {
	ProductID string  `json:"product_id" binding:"required,uuid"`
	Quantity  int     `json:"quantity"`
	Notes     *string `json:"notes"`
}

type CreateRequisitionsRequest struct {
	JobCardID string              `json:"job_card_id" binding:"required,uuid"`
	Items     []CreateItemRequest `json:"items" binding:"required,min=1,dive"`
}
