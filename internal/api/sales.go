package api

import (
	"net/http"

	"medstore/m/internal/sales"
)

func (h *Handler) recordSale(w http.ResponseWriter, r *http.Request) {
	var req sales.NewSale
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := h.svc.Sales.Record(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (h *Handler) salesHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	history, err := h.svc.Sales.History(r.Context(), sales.HistoryFilter{
		Patient: q.Get("patient"),
		From:    q.Get("start_date"),
		To:      q.Get("end_date"),
		Limit:   queryInt(r, "limit", 0),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}
