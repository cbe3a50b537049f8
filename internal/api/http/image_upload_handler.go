package http

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/storage"

	"github.com/gorilla/mux"
)

// FileStore is the local side of the presigned URLs handed out by the product service
type FileStore interface {
	Save(key string, r io.Reader) error
	Open(key string) (io.ReadCloser, error)
}

// ImageUploadHandler serves the upload and download URLs of local storage
type ImageUploadHandler struct {
	store        FileStore
	maxBytes     int64
	allowedTypes map[string]bool
}

func NewImageUploadHandler(store FileStore, maxBytes int64, allowedTypes []string) *ImageUploadHandler {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &ImageUploadHandler{store: store, maxBytes: maxBytes, allowedTypes: allowed}
}

// HandleUpload handles PUT requests to presigned upload URLs
func (h *ImageUploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !h.allowedTypes[contentType] {
		http.Error(w, "Invalid content type", http.StatusBadRequest)
		return
	}

	body := r.Body
	if h.maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	if err := h.store.Save(key, body); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, storage.ErrInvalidKey):
			http.Error(w, "Invalid key", http.StatusBadRequest)
		default:
			logger.ErrorContext(r.Context(), "Failed to save upload", "key", key, "error", err)
			http.Error(w, "Failed to save file", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("ETag", `"local-upload"`)
	w.WriteHeader(http.StatusOK)
}

// HandleDownload streams a stored image
func (h *ImageUploadHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}

	file, err := h.store.Open(key)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	contentType := "application/octet-stream"
	switch filepath.Ext(key) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".gif":
		contentType = "image/gif"
	case ".webp":
		contentType = "image/webp"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, file); err != nil {
		logger.WarnContext(r.Context(), "Download interrupted", "key", key, "error", err)
	}
}

// RegisterStorageRoutes registers the local storage endpoints
func RegisterStorageRoutes(router *mux.Router, h *ImageUploadHandler) {
	router.HandleFunc("/api/v1/upload/{token}", h.HandleUpload).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/download/{key}", h.HandleDownload).Methods(http.MethodGet)
}
