package handlers

import (
	"context"
	"net/http"

	"wholesale-backend/internal/models"
	"wholesale-backend/internal/services"
	"wholesale-backend/pkg/utils"
)

type DeliveryHandler struct {
	Service *services.DeliveryService
}

func NewDeliveryHandler(s *services.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{Service: s}
}

// batch decodes the order ids and always answers 200 with per-order results
func (h *DeliveryHandler) batch(run func(ctx context.Context, ids []int, userID int) *models.DeliveryBatchResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.DeliveryBatchRequest
		if err := decodeJSON(r, &req); err != nil {
			utils.Error(w, r, err)
			return
		}
		utils.JSON(w, http.StatusOK, run(r.Context(), req.OrderIDs, operatorID(r)))
	}
}

func (h *DeliveryHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.batch(h.Service.Start)(w, r)
}

func (h *DeliveryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.batch(h.Service.Cancel)(w, r)
}

func (h *DeliveryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.batch(h.Service.Complete)(w, r)
}
