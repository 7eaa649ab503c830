package api

import (
	"encoding/json"
	"net/http"
)

// envelope is the JSON shape every API response uses, success or failure.
type envelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding a fully-owned struct; an error here means the connection died.
	_ = json.NewEncoder(w).Encode(body)
}

func respondOK(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		StatusCode: http.StatusOK,
		Data:       data,
		Message:    message,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{
		Success:    false,
		StatusCode: status,
		Message:    message,
	})
}
