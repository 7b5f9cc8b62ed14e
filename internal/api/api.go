package api

import (
	"encoding/json"
	"net/http"
)

// FieldError is one attributed validation failure.
// Attr is the offending field name, or "non_field_errors" for
// object-level failures.
type FieldError struct {
	Attr   string `json:"attr"`
	Detail string `json:"detail"`
}

const NonFieldAttr = "non_field_errors"

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDetail writes a `{"detail": "..."}` body, used for confirmations
// and for 401/403/404 errors.
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, map[string]string{"detail": detail})
}

// WriteValidation writes the collected field errors as a 400 response.
func WriteValidation(w http.ResponseWriter, errs []FieldError) {
	WriteJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
}

// DecodeJSON decodes a request body, writing a 400 on malformed input.
// Returns false if decoding failed and a response was already written.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteValidation(w, []FieldError{{Attr: NonFieldAttr, Detail: "Invalid request body"}})
		return false
	}
	return true
}
