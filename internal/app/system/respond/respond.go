// Package respond writes the JSON envelope every API endpoint returns:
//
//	{"message": "...", "error": "CODE", "data": ...}
//
// and maps errors onto status codes: validation 400, not found 404,
// conflicts 409 with a machine-readable code, everything else 500 with the
// underlying message.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Envelope is the response body shape.
type Envelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
	Fields  any    `json:"fields,omitempty"`
}

// HTTPError carries a status, an optional code, and a client message.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string { return e.Message }

func NotFound(msg string) error { return &HTTPError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: msg} }
func Forbidden(msg string) error { return &HTTPError{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: msg} }

// Conflict returns a 409 with the given machine-readable code.
func Conflict(code, msg string) error {
	return &HTTPError{Status: http.StatusConflict, Code: code, Message: msg}
}

// TooMany is returned when a caller is rate limited.
func TooMany(msg string) error {
	return &HTTPError{Status: http.StatusTooManyRequests, Code: "RATE_LIMITED", Message: msg}
}

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 with data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Data: data})
}

// Created writes a 201 with a message and data.
func Created(w http.ResponseWriter, msg string, data any) {
	JSON(w, http.StatusCreated, Envelope{Message: msg, Data: data})
}

// Message writes a 200 with only a message (and optional data).
func Message(w http.ResponseWriter, msg string, data any) {
	JSON(w, http.StatusOK, Envelope{Message: msg, Data: data})
}

// Error maps err to a status code and writes it. Server errors are logged.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	var he *HTTPError
	var ve *inputval.ValidationError
	switch {
	case errors.As(err, &he):
		JSON(w, he.Status, Envelope{Message: he.Message, Error: he.Code})
	case errors.As(err, &ve):
		JSON(w, http.StatusBadRequest, Envelope{Message: ve.Error(), Error: "VALIDATION_ERROR", Fields: ve.Fields})
	case errors.Is(err, mongo.ErrNoDocuments):
		JSON(w, http.StatusNotFound, Envelope{Message: "not found", Error: "NOT_FOUND"})
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		JSON(w, http.StatusInternalServerError, Envelope{Message: err.Error(), Error: "INTERNAL_ERROR"})
	}
}

// DecodeJSON decodes the request body into v, reporting bad JSON as a
// validation error.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return inputval.Field("body", "request body is not valid JSON: "+err.Error())
	}
	return nil
}
