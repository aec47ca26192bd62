package api

import (
	"net/http"

	"medstore/m/internal/catalog"
)

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.svc.Catalog.ListMedicines(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, medicines)
}

func (h *Handler) saveMedicine(w http.ResponseWriter, r *http.Request) {
	var req catalog.MedicineInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, updated, err := h.svc.Catalog.SaveMedicine(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if updated {
		status = http.StatusOK
	}
	respondJSON(w, status, map[string]any{"medicine": m, "updated": updated})
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.svc.Catalog.ListSuppliers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, suppliers)
}

func (h *Handler) addSupplier(w http.ResponseWriter, r *http.Request) {
	var req catalog.SupplierInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sup, err := h.svc.Catalog.AddSupplier(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sup)
}
