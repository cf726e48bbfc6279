// Package jsonresp writes and reads the JSON bodies of the API.
package jsonresp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/collabhub/internal/app/system/limits"
)

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, map[string]string{"error": msg})
}

// ErrMalformed is returned by Decode for bodies that are not a JSON object.
var ErrMalformed = errors.New("malformed JSON body")

// Decode reads a JSON object from r into dst. An empty body decodes to the
// zero value so endpoints with optional payloads (logout) accept it.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, limits.MaxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return ErrMalformed
	}
	return nil
}
