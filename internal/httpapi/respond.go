package httpapi

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the structured shape every failure response uses.
// Per spec §6, a sanitize failure response never includes text.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func writeOK(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, data)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

func writeInternalServerError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: message})
}
