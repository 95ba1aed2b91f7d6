package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
)

// ErrorResponse is the envelope every error response is serialized as.
type ErrorResponse struct {
	Message string `json:"message"`
}

// WriteJSON serializes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError serves err with the status StatusCode assigns it. Messages for
// 5xx responses are replaced with a generic one unless APP_ENV=development,
// so infrastructure detail never leaks in production.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	message := err.Error()
	if status >= http.StatusInternalServerError && os.Getenv("APP_ENV") != "development" {
		message = "Something went wrong!"
		if errors.Is(err, ErrStoreUnavailable) {
			message = ErrStoreUnavailable.Error()
		}
	}
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// WriteMessage serves a plain informational message.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"message": message})
}
