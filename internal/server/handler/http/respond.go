package http

import (
	"encoding/json"
	"net/http"
)

// respondJSON writes v as a JSON body with status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes {"error": msg} with status.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// successResponse is the body of register, login, logout and known-face.
type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
