package httpapi

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// toJSON writes a JSON response with status code.
func toJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func conflict(w http.ResponseWriter, msg string)   { writeErr(w, http.StatusConflict, msg, "already_resolved") }
func unprocessable(w http.ResponseWriter, msg string) {
	writeErr(w, http.StatusUnprocessableEntity, msg, "validation_error")
}
