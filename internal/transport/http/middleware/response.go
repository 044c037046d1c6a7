package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

// errorEnvelope mirrors handler.Envelope for responses written before a handler runs.
type errorEnvelope struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// writeJSONError writes a JSON-encoded error envelope with the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Code: status, Message: msg, Timestamp: time.Now().UnixMilli()})
}
