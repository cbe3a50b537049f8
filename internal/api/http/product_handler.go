package http

import (
	"net/http"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"
)

type ProductHandler struct {
	products service.ProductService
}

func NewProductHandler(products service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

type pricingRequest struct {
	UnitType          domain.PricingUnit `json:"unit_type"`
	PricePerUnitCents int64              `json:"price_per_unit_cents"`
	MinDuration       int32              `json:"min_duration"`
}

type productRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Quantity    int32            `json:"quantity"`
	IsRentable  *bool            `json:"is_rentable"`
	ImageURL    string           `json:"image_url"`
	Pricing     []pricingRequest `json:"pricing"`
}

func (req productRequest) product() *domain.Product {
	p := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Quantity:    req.Quantity,
		IsRentable:  true,
		ImageURL:    req.ImageURL,
	}
	if req.IsRentable != nil {
		p.IsRentable = *req.IsRentable
	}
	return p
}

type stockRequest struct {
	Delta int32 `json:"delta"`
}

type imageRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, err := pagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	available, err := queryBool(r, "available")
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	products, total, err := h.products.List(r.Context(), domain.ProductFilter{
		Category:  q.Get("category"),
		Available: available,
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      page,
		PageSize:  size,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", Page{Items: products, Total: total, Page: page, PageSize: size})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", p)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	pricing := make([]domain.ProductPricing, 0, len(req.Pricing))
	for _, pr := range req.Pricing {
		pricing = append(pricing, domain.ProductPricing{
			UnitType:          pr.UnitType,
			PricePerUnitCents: pr.PricePerUnitCents,
			MinDuration:       pr.MinDuration,
		})
	}
	p, err := h.products.Create(r.Context(), req.product(), pricing)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, "product created", p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p := req.product()
	p.ID = id
	updated, err := h.products.Update(r.Context(), p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "product updated", updated)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "product deleted", nil)
}

func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.products.UpdateStock(r.Context(), id, req.Delta)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "stock updated", p)
}

func (h *ProductHandler) SetPricing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req pricingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.products.SetPricing(r.Context(), id, req.UnitType, req.PricePerUnitCents, req.MinDuration)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "pricing updated", p)
}

func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req imageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	upload, err := h.products.UploadImage(r.Context(), id, req.Filename, req.ContentType)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, "upload URL issued", upload)
}
