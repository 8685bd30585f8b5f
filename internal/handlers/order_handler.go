package handlers

import (
	"net/http"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/services"
	"wholesale-backend/pkg/utils"
)

type OrderHandler struct {
	Service *services.OrderService
}

func NewOrderHandler(s *services.OrderService) *OrderHandler {
	return &OrderHandler{Service: s}
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	order, err := h.Service.CreateOrder(r.Context(), &req, operatorID(r))
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	order, err := h.Service.GetOrder(r.Context(), id)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}

// ListOrders filters by customer_id, warehouse_id, status and the from/to order dates
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var filter models.OrderFilter
	var err error
	if filter.CustomerID, err = queryInt(r, "customer_id"); err != nil {
		utils.Error(w, r, err)
		return
	}
	if filter.WarehouseID, err = queryInt(r, "warehouse_id"); err != nil {
		utils.Error(w, r, err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.DeliveryStatus = models.DeliveryStatus(status)
		switch filter.DeliveryStatus {
		case models.DeliveryStatusRequested, models.DeliveryStatusDelivering, models.DeliveryStatusCompleted:
		default:
			utils.Error(w, r, apperr.Validation("invalid status").WithDetail("status", status))
			return
		}
	}
	if filter.StartDate, filter.EndDate, err = queryDateRange(r); err != nil {
		utils.Error(w, r, err)
		return
	}
	if filter.Limit, filter.Offset, err = pagination(r); err != nil {
		utils.Error(w, r, err)
		return
	}

	orders, err := h.Service.ListOrders(r.Context(), filter)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) UpdateOrderItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	var req models.UpdateOrderItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	order, err := h.Service.UpdateOrderItems(r.Context(), id, &req, operatorID(r))
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	if err := h.Service.DeleteOrder(r.Context(), id, operatorID(r)); err != nil {
		utils.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) DeleteOrderLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	order, err := h.Service.DeleteOrderLine(r.Context(), id, operatorID(r))
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}
