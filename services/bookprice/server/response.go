package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"bookbargain-backend/services/bookprice"
)

const retryAfterSeconds = "5"

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Meta    any  `json:"meta,omitempty"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func jsonSuccess(w http.ResponseWriter, data, meta any) {
	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error: errorBody{Code: code, Message: message},
	})
}

// fail writes the response for an error returned by the service.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, bookprice.ErrInvalidISBN):
		jsonError(w, http.StatusBadRequest, "INVALID_ISBN", err.Error())
	case errors.Is(err, bookprice.ErrInvalidRequest):
		jsonError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, bookprice.ErrNotFound):
		jsonError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, bookprice.ErrSourcesUnavailable):
		w.Header().Set("Retry-After", retryAfterSeconds)
		jsonError(w, http.StatusServiceUnavailable, "SOURCES_UNAVAILABLE", "no source returned the book, try again later")
	case bookprice.IsRetryable(err):
		w.Header().Set("Retry-After", retryAfterSeconds)
		jsonError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "storage is unavailable, try again later")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		jsonError(w, http.StatusServiceUnavailable, "CANCELLED", err.Error())
	default:
		s.tel.ReportBroken(report_handler, r.Method, r.URL.Path, err)
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
