package http

import (
	"net/http"
	"time"

	"rental-marketplace-backend/internal/service"
)

type ReportHandler struct {
	reports service.ReportService
}

func NewReportHandler(reports service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Summary defaults to the last 30 days
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		respondError(w, r, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		respondError(w, r, err)
		return
	}
	end := time.Now().UTC()
	if to != nil {
		end = *to
	}
	start := end.AddDate(0, 0, -30)
	if from != nil {
		start = *from
	}
	summary, err := h.reports.Summary(r.Context(), start, end)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", summary)
}
