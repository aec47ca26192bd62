package api

import (
	"net/http"

	"medstore/m/internal/reports"
)

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Reports.Overview(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handler) monthlyRevenue(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Reports.Monthly(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *Handler) salesAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Reports.Analytics(r.Context(), queryInt(r, "days", 30), r.URL.Query().Get("sort"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if stats == nil {
		stats = []reports.MedicineStats{}
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) topSelling(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Reports.TopSelling(r.Context(), queryInt(r, "limit", 5))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
