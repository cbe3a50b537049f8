package http

import (
	"net/http"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"
)

type UserHandler struct {
	users service.UserService
}

func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type profileRequest struct {
	Name      *string `json:"name"`
	Address   *string `json:"address"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
	PushToken *string `json:"push_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type roleRequest struct {
	Role domain.UserRole `json:"role"`
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), callerFrom(r).UserID, service.ProfileUpdate{
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
		PushToken: req.PushToken,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "profile updated", user)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), callerFrom(r).UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "password changed", nil)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, err := pagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	users, total, err := h.users.ListUsers(r.Context(), page, size)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", Page{Items: users, Total: total, Page: page, PageSize: size})
}

func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.users.SetRole(r.Context(), callerFrom(r).UserID, id, req.Role); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "role updated", nil)
}
