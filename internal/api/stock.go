package api

import (
	"fmt"
	"net/http"

	"medstore/m/domain"
	"medstore/m/internal/inventory"
)

func (h *Handler) stockOverview(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Inventory.Overview(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.StockRow{}
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) receiveStock(w http.ResponseWriter, r *http.Request) {
	var req inventory.Receipt
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	received, err := h.svc.Inventory.Receive(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, received)
}

type availabilityItem struct {
	MedicineID int64 `json:"medicine_id"`
	Quantity   int64 `json:"quantity"`
}

// checkAvailability runs the stock check without recording anything.
func (h *Handler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Items []availabilityItem `json:"items"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(payload.Items) == 0 {
		respondError(w, http.StatusBadRequest, "at least one item is required")
		return
	}

	ids := make([]int64, len(payload.Items))
	for i, it := range payload.Items {
		if it.MedicineID <= 0 || it.Quantity <= 0 {
			respondError(w, http.StatusBadRequest, "medicine_id and quantity are required for each item")
			return
		}
		if it.Quantity > inventory.MaxQuantity {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("quantity cannot exceed %d", inventory.MaxQuantity))
			return
		}
		ids[i] = it.MedicineID
	}
	names, err := h.svc.Catalog.MedicineNames(r.Context(), ids)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	reqs := make([]inventory.Request, len(payload.Items))
	for i, it := range payload.Items {
		reqs[i] = inventory.Request{MedicineID: it.MedicineID, Name: names[it.MedicineID], Quantity: it.Quantity}
	}
	if err := h.svc.Inventory.CheckAvailability(r.Context(), reqs); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"available": true})
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Inventory.LowStock(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []inventory.LowStockItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) expiringStock(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.Inventory.Expiring(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

func (h *Handler) stockValue(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Inventory.Value(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}
