package http

import (
	"context"
	"net/http"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"
	"rental-marketplace-backend/internal/utils"
)

type RentalRequestHandler struct {
	requests service.RentalRequestService
}

func NewRentalRequestHandler(requests service.RentalRequestService) *RentalRequestHandler {
	return &RentalRequestHandler{requests: requests}
}

type createRentalRequest struct {
	ProductID       int32  `json:"product_id"`
	Quantity        int32  `json:"quantity"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	DurationType    string `json:"duration_type"`
	DurationValue   int32  `json:"duration_value"`
	DeliveryAddress string `json:"delivery_address"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type paymentStatusRequest struct {
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	AmountCents   int64                `json:"amount_cents"`
}

func (h *RentalRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRentalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		respondError(w, r, apperr.Validation("start_date and end_date are required"))
		return
	}
	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		respondError(w, r, apperr.Validation(err.Error()))
		return
	}
	end, err := utils.ParseDate(req.EndDate)
	if err != nil {
		respondError(w, r, apperr.Validation(err.Error()))
		return
	}
	rr, err := h.requests.Create(r.Context(), callerFrom(r).UserID, service.CreateRentalRequestInput{
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		StartDate:       start,
		EndDate:         end,
		DurationType:    req.DurationType,
		DurationValue:   req.DurationValue,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, "rental request created", rr)
}

func (h *RentalRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, err := pagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	caller := callerFrom(r)
	status := r.URL.Query().Get("status")

	var (
		items []domain.RentalRequest
		total int32
	)
	if caller.IsAdmin() {
		items, total, err = h.requests.ListAll(r.Context(), status, page, size)
	} else {
		items, total, err = h.requests.ListMine(r.Context(), caller.UserID, status, page, size)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", Page{Items: items, Total: total, Page: page, PageSize: size})
}

func (h *RentalRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	rr, err := h.requests.Get(r.Context(), callerFrom(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", rr)
}

func (h *RentalRequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "rental request approved", h.requests.Approve)
}

func (h *RentalRequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "rental request rejected", h.requests.Reject)
}

func (h *RentalRequestHandler) review(w http.ResponseWriter, r *http.Request, message string,
	fn func(ctx context.Context, id, adminID int32, notes string) (*domain.RentalRequest, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req notesRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
	}
	rr, err := fn(r.Context(), id, callerFrom(r).UserID, req.Notes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, message, rr)
}

func (h *RentalRequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	rr, err := h.requests.Cancel(r.Context(), id, callerFrom(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "rental request cancelled", rr)
}

func (h *RentalRequestHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	rr, err := h.requests.ConfirmOrder(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "order confirmed", rr)
}

func (h *RentalRequestHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req paymentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	rr, err := h.requests.UpdatePaymentStatus(r.Context(), id, req.PaymentStatus, req.AmountCents)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "payment status updated", rr)
}
