package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"feedbacksense/inference"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// statusForError maps inference failures onto HTTP statuses: client input
// problems are 400, everything else is a server error.
func statusForError(err error) int {
	if inference.IsInputError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// messageForError hides internal failures that are neither input errors nor
// the model-unavailable case.
func messageForError(err error) string {
	if inference.IsInputError(err) || errors.Is(err, inference.ErrModelUnavailable) {
		return err.Error()
	}
	return "internal server error"
}
