package http

import (
	"net/http"

	"rental-marketplace-backend/internal/service"
)

type WishlistHandler struct {
	wishlist service.WishlistService
}

func NewWishlistHandler(wishlist service.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist}
}

func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.wishlist.List(r.Context(), callerFrom(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", items)
}

func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.wishlist.Add(r.Context(), callerFrom(r).UserID, productID); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, "added to wishlist", nil)
}

func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.wishlist.Remove(r.Context(), callerFrom(r).UserID, productID); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "removed from wishlist", nil)
}
