package http

import (
	"net/http"
	"time"

	"rental-marketplace-backend/internal/service"
)

type NotificationHandler struct {
	notifications service.NotificationService
}

func NewNotificationHandler(notifications service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	unread, err := queryBool(r, "unread_only")
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := queryInt32(r, "page", 1)
	if err != nil {
		respondError(w, r, err)
		return
	}
	limit, err := queryInt32(r, "limit", 20)
	if err != nil {
		respondError(w, r, err)
		return
	}
	unreadOnly := unread != nil && *unread
	items, total, err := h.notifications.List(r.Context(), callerFrom(r).UserID, unreadOnly, page, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", Page{Items: items, Total: total, Page: page, PageSize: limit})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.notifications.MarkRead(r.Context(), callerFrom(r).UserID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkAllRead(r.Context(), callerFrom(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "notifications marked as read", map[string]int64{"updated": n})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.UnreadCount(r.Context(), callerFrom(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", map[string]int32{"unread": n})
}

func (h *NotificationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.notifications.Stats(r.Context(), callerFrom(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "ok", stats)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.notifications.Delete(r.Context(), callerFrom(r).UserID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "notification deleted", nil)
}

func (h *NotificationHandler) ProcessScheduled(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.ProcessScheduled(r.Context(), time.Now().UTC())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "scheduled notifications processed", map[string]int{"processed": n})
}
