package handlers

import (
	"net/http"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/services"
	"wholesale-backend/pkg/utils"
)

type ClosingHandler struct {
	Service *services.ClosingService
}

func NewClosingHandler(s *services.ClosingService) *ClosingHandler {
	return &ClosingHandler{Service: s}
}

// Compute derives one closing row, or every stocked item of the warehouse when item_id is 0
func (h *ClosingHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req models.ComputeClosingRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	if req.ItemID == 0 {
		rows, err := h.Service.ComputeWarehouseClosing(r.Context(), req.WarehouseID, req.YearMonth)
		if err != nil {
			utils.Error(w, r, err)
			return
		}
		utils.JSON(w, http.StatusOK, rows)
		return
	}

	row, err := h.Service.ComputeClosing(r.Context(), req.WarehouseID, req.ItemID, req.YearMonth)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, row)
}

func (h *ClosingHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.SaveClosingRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	rows, err := h.Service.SaveClosing(r.Context(), &req)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, rows)
}

func (h *ClosingHandler) RecordActual(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	var req models.RecordActualRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	row, err := h.Service.RecordActual(r.Context(), id, &req)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, row)
}

func (h *ClosingHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req models.CloseRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	rows, err := h.Service.Close(r.Context(), req.WarehouseID, req.YearMonth, operatorID(r))
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, rows)
}

func (h *ClosingHandler) GetClosing(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	row, err := h.Service.GetClosing(r.Context(), id)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, row)
}

func (h *ClosingHandler) ListClosings(w http.ResponseWriter, r *http.Request) {
	var filter models.ClosingFilter
	var err error
	if filter.WarehouseID, err = queryInt(r, "warehouse_id"); err != nil {
		utils.Error(w, r, err)
		return
	}
	if filter.ItemID, err = queryInt(r, "item_id"); err != nil {
		utils.Error(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("year_month"); raw != "" {
		ym, err := models.ParseYearMonth(raw)
		if err != nil {
			utils.Error(w, r, apperr.Validation(err.Error()).WithDetail("year_month", raw))
			return
		}
		filter.YearMonth = ym
	}

	rows, err := h.Service.ListClosings(r.Context(), filter)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, rows)
}
