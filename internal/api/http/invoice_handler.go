package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"
)

type InvoiceHandler struct {
	invoices service.InvoiceService
}

func NewInvoiceHandler(invoices service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

type createInvoiceRequest struct {
	RentalRequestID      int32  `json:"rental_request_id"`
	PaymentMethod        string `json:"payment_method"`
	UpfrontPaymentCents  int64  `json:"upfront_payment_cents"`
	SecurityDepositCents *int64 `json:"security_deposit_cents"`
	DueDate              string `json:"due_date"`
	Notes                string `json:"notes"`
}

type paymentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	due, err := dateField("due_date", req.DueDate)
	if err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := h.invoices.Create(r.Context(), service.CreateInvoiceInput{
		RentalRequestID:      req.RentalRequestID,
		PaymentMethod:        req.PaymentMethod,
		UpfrontPaymentCents:  req.UpfrontPaymentCents,
		SecurityDepositCents: req.SecurityDepositCents,
		DueDate:              due,
		Notes:                req.Notes,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, "invoice created", inv)
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, err := pagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var customerID *int32
	if r.URL.Query().Get("customer_id") != "" {
		id, err := queryInt32(r, "customer_id", 0)
		if err != nil {
			respondError(w, r, err)
			return
		}
		customerID = &id
	}
	status := domain.InvoiceStatus(r.URL.Query().Get("status"))
	items, total, err := h.invoices.List(r.Context(), callerFrom(r), status, customerID, page, size)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", Page{Items: items, Total: total, Page: page, PageSize: size})
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := h.invoices.Get(r.Context(), callerFrom(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", inv)
}

func (h *InvoiceHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := h.invoices.ProcessPayment(r.Context(), callerFrom(r), id, req.AmountCents, req.Method)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "payment recorded", inv)
}

func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := h.invoices.Send(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "invoice sent", inv)
}

func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := h.invoices.Cancel(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "invoice cancelled", inv)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.invoices.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "invoice deleted", nil)
}

// Document streams the invoice PDF; it is buffered so a render failure still gets a JSON error
func (h *InvoiceHandler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var buf bytes.Buffer
	inv, err := h.invoices.Document(r.Context(), callerFrom(r), id, &buf)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%s.pdf"`, inv.InvoiceNumber))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (h *InvoiceHandler) UpdateLateFees(w http.ResponseWriter, r *http.Request) {
	updated, err := h.invoices.UpdateLateFees(r.Context(), time.Now().UTC())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "late fees updated", map[string]int{"updated": updated})
}
