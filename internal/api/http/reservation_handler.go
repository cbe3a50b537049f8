package http

import (
	"net/http"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"
)

type ReservationHandler struct {
	reservations service.ReservationService
	deliveries   service.DeliveryService
}

func NewReservationHandler(reservations service.ReservationService, deliveries service.DeliveryService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, deliveries: deliveries}
}

type createReservationRequest struct {
	RentalRequestID int32  `json:"rental_request_id"`
	PickupDate      string `json:"pickup_date"`
	DeliveryDate    string `json:"delivery_date"`
	ReturnDate      string `json:"return_date"`
}

type reservationStatusRequest struct {
	Status   domain.ReservationStatus `json:"status"`
	MemberID *int32                   `json:"member_id"`
	Notes    string                   `json:"notes"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	var (
		schedule domain.ReservationSchedule
		err      error
	)
	if schedule.PickupDate, err = dateField("pickup_date", req.PickupDate); err != nil {
		respondError(w, r, err)
		return
	}
	if schedule.DeliveryDate, err = dateField("delivery_date", req.DeliveryDate); err != nil {
		respondError(w, r, err)
		return
	}
	if schedule.ReturnDate, err = dateField("return_date", req.ReturnDate); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.reservations.Create(r.Context(), req.RentalRequestID, callerFrom(r).UserID, schedule)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, "reservation created", res)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, err := pagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	items, total, err := h.reservations.List(r.Context(), callerFrom(r), r.URL.Query().Get("status"), page, size)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", Page{Items: items, Total: total, Page: page, PageSize: size})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.reservations.Get(r.Context(), callerFrom(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", res)
}

func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req reservationStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.reservations.UpdateStatus(r.Context(), id, req.Status, req.MemberID, req.Notes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "reservation status updated", res)
}

func (h *ReservationHandler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	doc, err := h.reservations.Document(r.Context(), callerFrom(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", doc)
}

func (h *ReservationHandler) Deliveries(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	deliveries, err := h.deliveries.ListByReservation(r.Context(), callerFrom(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", deliveries)
}
