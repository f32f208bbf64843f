package devserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxJSONBytes = 1 << 20

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	h.logger.Error("Internal server error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
}

func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

// Response is the envelope of the REST-style endpoints
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, Response{Success: false, Message: msg})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{Success: true, Message: msg, Data: data})
}

// validationMessage renders the first validation failure in words
func (h *Handler) validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return validationErrors[0].Translate(h.translator)
	}
	return err.Error()
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   map[string]any `json:"data"`
	Errors []gqlError     `json:"errors,omitempty"`
}

// writeData answers operation with payload under data.<operation>
func (h *Handler) writeData(w http.ResponseWriter, r *http.Request, operation string, payload any) {
	h.writeJSON(w, r, http.StatusOK, gqlResponse{Data: map[string]any{operation: payload}})
}

// writeError answers operation with a null payload and one error
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, operation, msg string) {
	h.writeJSON(w, r, status, gqlResponse{
		Data:   map[string]any{operation: nil},
		Errors: []gqlError{{Message: msg}},
	})
}

func (h *Handler) writeInternalError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	h.logInternalServerError(r, err)
	h.writeError(w, r, http.StatusInternalServerError, operation, "internal server error")
}

// mutationResult is the payload of mutations that report success in-band
type mutationResult struct {
	Success any    `json:"success"`
	Message string `json:"message"`
}
