package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorEnvelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    *int   `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Error: true, Message: msg})
}

// writeGatewayError carries the raw gateway code alongside the localized
// message.
func writeGatewayError(w http.ResponseWriter, status int, msg string, code int) {
	writeJSON(w, status, errorEnvelope{Error: true, Message: msg, Code: &code})
}
