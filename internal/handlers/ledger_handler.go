package handlers

import (
	"net/http"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/services"
	"wholesale-backend/pkg/utils"
)

type LedgerHandler struct {
	Service *services.LedgerService
}

func NewLedgerHandler(s *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{Service: s}
}

func (h *LedgerHandler) AppendEntry(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLedgerEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, r, err)
		return
	}

	entry, err := h.Service.AppendEntry(r.Context(), &req, operatorID(r))
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, entry)
}

// ReverseEntry deletes the entry booked for ?reference_type=&reference_id=
func (h *LedgerHandler) ReverseEntry(w http.ResponseWriter, r *http.Request) {
	refType := r.URL.Query().Get("reference_type")
	refID, err := queryInt(r, "reference_id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	if refType == "" || refID == 0 {
		utils.Error(w, r, apperr.Validation("reference_type and reference_id are required"))
		return
	}

	removed, err := h.Service.ReverseEntry(r.Context(), refType, refID)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, removed)
}

func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	customerID, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	filter := models.LedgerFilter{CustomerID: customerID}
	if t := r.URL.Query().Get("type"); t != "" {
		filter.EntryType = models.LedgerEntryType(t)
		if !filter.EntryType.Valid() {
			utils.Error(w, r, apperr.Validation("invalid entry type").WithDetail("type", t))
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

	entries, err := h.Service.ListEntries(r.Context(), filter)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, entries)
}

func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	customerID, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	balance, err := h.Service.CurrentBalance(r.Context(), customerID)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, balance)
}

func (h *LedgerHandler) VerifyChain(w http.ResponseWriter, r *http.Request) {
	customerID, err := pathInt(r, "id")
	if err != nil {
		utils.Error(w, r, err)
		return
	}

	check, err := h.Service.VerifyChain(r.Context(), customerID)
	if err != nil {
		utils.Error(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, check)
}
