package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// maxBodyBytes caps operator request bodies; both payloads are a couple of short strings.
const maxBodyBytes = 1 << 16

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// writeDecodeError reports a decodeJSON failure. Oversized bodies get 413 and
// unknown fields are named so a misspelled chat_id is obvious to the operator.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}
	if msg := err.Error(); strings.HasPrefix(msg, "json: unknown field ") {
		writeError(w, http.StatusBadRequest, "invalid body: "+strings.TrimPrefix(msg, "json: "))
		return
	}
	writeError(w, http.StatusBadRequest, "invalid body")
}
