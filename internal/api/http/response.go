package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/utils"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// Envelope wraps every JSON response body
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// Page is the data payload of list endpoints
type Page struct {
	Items    any   `json:"items"`
	Total    int32 `json:"total"`
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}

func respondJSON(w http.ResponseWriter, status int, message string, data any) {
	body, err := json.Marshal(Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < 400,
	})
	if err != nil {
		logger.Error("Failed to encode response", "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"statusCode":500,"message":"failed to encode response","success":false}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// respondError is the single place service errors are turned into responses
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	respondJSON(w, status, apperr.MessageOf(err), nil)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid request body: " + err.Error())
	}
	return nil
}

func pathID(r *http.Request, name string) (int32, error) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 32)
	if err != nil || v <= 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return int32(v), nil
}

func queryInt32(r *http.Request, name string, def int32) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, apperr.Validation("invalid " + name)
	}
	return int32(v), nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("invalid " + name)
	}
	return &v, nil
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	return &t, nil
}

// pagination reads page and page_size (or limit) with defaults 1 and 20
func pagination(r *http.Request) (int32, int32, error) {
	page, err := queryInt32(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	size, err := queryInt32(r, "page_size", 0)
	if err != nil {
		return 0, 0, err
	}
	if size == 0 {
		if size, err = queryInt32(r, "limit", 20); err != nil {
			return 0, 0, err
		}
	}
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size, nil
}

// dateField parses an optional yyyy-mm-dd body field
func dateField(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validation(name + ": " + err.Error())
	}
	return &t, nil
}
