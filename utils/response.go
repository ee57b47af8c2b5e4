package utils

import (
	"encoding/json"
	"net/http"
)

// Machine-readable error reasons surfaced to clients. Handlers never leak
// internal error details; storage failures all collapse to ReasonStorage.
const (
	ReasonInvalidJSON      = "invalid_json"
	ReasonMissingFields    = "missing_fields"
	ReasonInvalidAmount    = "invalid_amount"
	ReasonBadCredentials   = "invalid_credentials"
	ReasonUnauthorized     = "unauthorized"
	ReasonRotationRequired = "password_rotation_required"
	ReasonWeakPassword     = "weak_password"
	ReasonStorage          = "storage_error"
	ReasonTooManyRequests  = "too_many_requests"
)

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError sends the uniform error envelope with a short reason string.
func WriteError(w http.ResponseWriter, status int, reason string) {
	WriteJSON(w, status, ErrorResponse{OK: false, Error: reason})
}
