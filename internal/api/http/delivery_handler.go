package http

import (
	"net/http"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"
	"rental-marketplace-backend/internal/utils"
)

type DeliveryHandler struct {
	deliveries service.DeliveryService
}

func NewDeliveryHandler(deliveries service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveries: deliveries}
}

type deliveryStatusRequest struct {
	Status  domain.DeliveryStatus `json:"status"`
	StaffID *int32                `json:"staff_id"`
	Notes   string                `json:"notes"`
}

type assignRequest struct {
	StaffID int32 `json:"staff_id"`
}

type rescheduleRequest struct {
	ScheduledDate string `json:"scheduled_date"`
}

func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, err := pagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.DeliveryFilter{
		Status:        domain.DeliveryStatus(q.Get("status")),
		OperationType: domain.OperationType(q.Get("operation_type")),
		Date:          date,
		Page:          page,
		PageSize:      size,
	}
	if raw := q.Get("assigned_to"); raw != "" {
		staff, err := queryInt32(r, "assigned_to", 0)
		if err != nil {
			respondError(w, r, err)
			return
		}
		filter.AssignedTo = &staff
	}
	items, total, err := h.deliveries.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", Page{Items: items, Total: total, Page: page, PageSize: size})
}

func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	d, err := h.deliveries.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", d)
}

func (h *DeliveryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req deliveryStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	staff := req.StaffID
	if staff == nil {
		self := callerFrom(r).UserID
		staff = &self
	}
	d, err := h.deliveries.UpdateStatus(r.Context(), id, req.Status, staff, req.Notes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "delivery status updated", d)
}

func (h *DeliveryHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	d, err := h.deliveries.Assign(r.Context(), id, req.StaffID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "delivery assigned", d)
}

func (h *DeliveryHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req rescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	date, err := utils.ParseDate(req.ScheduledDate)
	if err != nil {
		respondError(w, r, apperr.Validation(err.Error()))
		return
	}
	d, err := h.deliveries.Reschedule(r.Context(), id, date)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "delivery rescheduled", d)
}

func (h *DeliveryHandler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	doc, err := h.deliveries.Document(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", doc)
}
