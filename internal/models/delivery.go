package models

// DeliveryBatchRequest carries the order ids of a start/cancel/complete batch
type DeliveryBatchRequest struct {
	OrderIDs []int `json:"order_ids" validate:"required,min=1,dive,gt=0"`
}

// DeliveryResult is the outcome for one order of a delivery batch
type DeliveryResult struct {
	OrderID int            `json:"order_id"`
	Success bool           `json:"success"`
	Status  DeliveryStatus `json:"status,omitempty"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
}

// DeliveryBatchResult summarizes a batch; the batch itself never fails as a unit
type DeliveryBatchResult struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []DeliveryResult `json:"results"`
}
