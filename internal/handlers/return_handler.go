package handlers

import (
	"net/http"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/services"
	"wholesale-backend/pkg/utils"
)

type ReturnHandler struct {
	Service *services.ReturnService
}

func NewReturnHandler(s *services.ReturnService) *ReturnHandler {
	return &ReturnHandler{Service: s}
}

func (h *ReturnHandler) CreateReturn(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReturnRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	rec, err := h.Service.CreateReturn(r.Context(), &req, operatorID(r))
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, rec)
}

func (h *ReturnHandler) GetReturn(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	rec, err := h.Service.GetReturn(r.Context(), id)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, rec)
}

func (h *ReturnHandler) ListReturns(w http.ResponseWriter, r *http.Request) {
	var filter models.ReturnFilter
	var err error
	if filter.CustomerID, err = queryInt(r, "customer_id"); err != nil {
		utils.Error(w, r, err)
		return
	}
	if filter.OrderID, err = queryInt(r, "order_id"); err != nil {
		utils.Error(w, r, err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = models.ReturnStatus(status)
		switch filter.Status {
		case models.ReturnStatusUnapproved, models.ReturnStatusApproved, models.ReturnStatusRejected:
		default:
			utils.Error(w, r, apperr.Validation("invalid status").WithDetail("status", status))
			return
		}
	}
	if filter.Limit, filter.Offset, err = pagination(r); err != nil {
		utils.Error(w, r, err)
		return
	}

	records, err := h.Service.ListReturns(r.Context(), filter)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, records)
}

func (h *ReturnHandler) ApproveReturn(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	rec, err := h.Service.ApproveReturn(r.Context(), id, operatorID(r))
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, rec)
}

func (h *ReturnHandler) RejectReturn(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	rec, err := h.Service.RejectReturn(r.Context(), id, operatorID(r))
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, rec)
}

func (h *ReturnHandler) DeleteReturn(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	if err := h.Service.DeleteReturn(r.Context(), id); err != nil {
		utils.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
