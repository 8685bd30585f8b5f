package handlers

import (
	"net/http"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/services"
	"wholesale-backend/pkg/utils"
)

type StockHandler struct {
	Service *services.StockService
}

func NewStockHandler(s *services.StockService) *StockHandler {
	return &StockHandler{Service: s}
}

func (h *StockHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req models.AdjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	movement, err := h.Service.AdjustStock(r.Context(), &req, operatorID(r))
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, movement)
}

func (h *StockHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := queryInt(r, "warehouse_id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	stock, err := h.Service.ListStock(r.Context(), warehouseID)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, stock)
}

func stockKey(r *http.Request) (int, int, error) {
	warehouseID, err := pathInt(r, "warehouse")
	if err != nil {
		return 0, 0, err
	}
	itemID, err := pathInt(r, "item")
	if err != nil {
		return 0, 0, err
	}
	return warehouseID, itemID, nil
}

func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	warehouseID, itemID, err := stockKey(r)
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	stock, err := h.Service.GetStock(r.Context(), warehouseID, itemID)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, stock)
}

func (h *StockHandler) SetSafeQuantity(w http.ResponseWriter, r *http.Request) {
	warehouseID, itemID, err := stockKey(r)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	var req models.SetSafeQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	stock, err := h.Service.SetSafeQuantity(r.Context(), warehouseID, itemID, req.SafeQuantity)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, stock)
}

func (h *StockHandler) VerifyStock(w http.ResponseWriter, r *http.Request) {
	warehouseID, itemID, err := stockKey(r)
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	check, err := h.Service.VerifyStock(r.Context(), warehouseID, itemID)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, check)
}

func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter models.MovementFilter
	var err error
	if filter.WarehouseID, err = queryInt(r, "warehouse_id"); err != nil {
		utils.Error(w, r, err)
		return
	}
	if filter.ItemID, err = queryInt(r, "item_id"); err != nil {
		utils.Error(w, r, err)
		return
	}
	if t := q.Get("type"); t != "" {
		filter.MovementType = models.MovementType(t)
		switch filter.MovementType {
		case models.MovementTypeIn, models.MovementTypeOut, models.MovementTypeAdjustment:
		default:
			utils.Error(w, r, apperr.Validation("invalid movement type").WithDetail("type", t))
			return
		}
	}
	filter.ReferenceType = q.Get("reference_type")
	if q.Get("reference_id") != "" {
		refID, err := queryInt(r, "reference_id")
		if err != nil {
			utils.Error(w, r, err)
			return
		}
		filter.ReferenceID = &refID
	}
	if filter.StartDate, filter.EndDate, err = queryDateRange(r); err != nil {
		utils.Error(w, r, err)
		return
	}
	if filter.Limit, filter.Offset, err = pagination(r); err != nil {
		utils.Error(w, r, err)
		return
	}

	movements, err := h.Service.ListMovements(r.Context(), filter)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, movements)
}
