package handlers

import (
	"net/http"

	"wholesale-backend/internal/models"
	"wholesale-backend/internal/services"
	"wholesale-backend/pkg/utils"
)

type CatalogHandler struct {
	Service *services.CatalogService
}

func NewCatalogHandler(s *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{Service: s}
}

func (h *CatalogHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	customer, err := h.Service.CreateCustomer(r.Context(), &req)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, customer)
}

func (h *CatalogHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	customer, err := h.Service.GetCustomer(r.Context(), id)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

func (h *CatalogHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Service.ListCustomers(r.Context())
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, customers)
}

// SetOrderLimit caps one item for one customer; max_quantity 0 removes the cap
func (h *CatalogHandler) SetOrderLimit(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	var req models.SetOrderLimitRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	limit, err := h.Service.SetOrderLimit(r.Context(), id, &req)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, limit)
}

func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	item, err := h.Service.CreateItem(r.Context(), &req)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, item)
}

func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListItems(r.Context())
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWarehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	warehouse, err := h.Service.CreateWarehouse(r.Context(), &req)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, warehouse)
}

func (h *CatalogHandler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.Service.ListWarehouses(r.Context())
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, warehouses)
}
