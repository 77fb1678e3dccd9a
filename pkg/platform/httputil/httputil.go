// Package httputil holds small HTTP response helpers shared by the
// gate handlers and middleware.
package httputil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v as a JSON response with the given status code. An
// encode failure after the header has been written cannot be reported
// to the client, so it is silently dropped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
