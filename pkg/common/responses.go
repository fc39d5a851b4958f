package common

import (
	"encoding/json"
	"net/http"
)

// Envelope statuses. Successful reads served from cache carry a distinct
// status so clients (and tests) can tell the two paths apart.
const (
	StatusSuccess   = "success"
	StatusFromCache = "success (from cache)"
	StatusFail      = "fail"
	StatusError     = "error"
)

// APIResponse is the uniform response envelope.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondJSON writes a success envelope with the given payload.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, APIResponse{Status: StatusSuccess, Data: data})
}

// RespondCached writes a success envelope flagged as served from cache.
func RespondCached(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, APIResponse{Status: StatusFromCache, Data: data})
}

// RespondError writes the {status, message} failure envelope. Client errors
// use "fail", server errors "error".
func RespondError(w http.ResponseWriter, status int, message string) {
	s := StatusFail
	if status >= http.StatusInternalServerError {
		s = StatusError
	}
	writeJSON(w, status, APIResponse{Status: s, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ParseJSONBody decodes a JSON request body with a size limit, rejecting
// unknown fields.
func ParseJSONBody(r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
