package http

import (
	"net/http"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"
)

type SettingsHandler struct {
	settings service.SettingsService
}

func NewSettingsHandler(settings service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context(), callerFrom(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", s)
}

func (h *SettingsHandler) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	var prefs domain.NotificationPreferences
	if err := decodeJSON(r, &prefs); err != nil {
		respondError(w, r, err)
		return
	}
	s, err := h.settings.UpdateNotificationPreferences(r.Context(), callerFrom(r).UserID, prefs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "notification settings updated", s)
}

func (h *SettingsHandler) UpdateBusiness(w http.ResponseWriter, r *http.Request) {
	var biz domain.BusinessSettings
	if err := decodeJSON(r, &biz); err != nil {
		respondError(w, r, err)
		return
	}
	s, err := h.settings.UpdateBusinessSettings(r.Context(), callerFrom(r), biz)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "business settings updated", s)
}

func (h *SettingsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Reset(r.Context(), callerFrom(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "settings reset", s)
}
