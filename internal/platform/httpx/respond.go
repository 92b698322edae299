// Package httpx provides JSON response utilities for the console API.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Notification is a user-facing toast carried inside response envelopes.
type Notification struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Redirect instructs the browser to navigate after a delay. Used when a
// session expires so the notification stays visible before the jump.
type Redirect struct {
	Location string `json:"location"`
	DelayMS  int    `json:"delay_ms"`
}

// Envelope is the standard console response wrapper.
type Envelope struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message,omitempty"`
	Data         any           `json:"data,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	Redirect     *Redirect     `json:"redirect,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a success envelope wrapping data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Fail sends a failure envelope with a notification.
func Fail(w http.ResponseWriter, status int, n Notification) {
	JSON(w, status, Envelope{Success: false, Message: n.Message, Notification: &n})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
