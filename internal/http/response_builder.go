// Package http serves the dashboard aggregates as a read-only JSON API.
//
// This file builds JSON responses and maps domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"apoyos/internal/core"
)

const contentTypeJSON = "application/json; charset=utf-8"

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       []byte
	headers    map[string]string
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    map[string]string{"Content-Type": contentTypeJSON},
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Raw sets an already encoded body.
func (b *JSONResponseBuilder) Raw(body []byte) *JSONResponseBuilder {
	b.body = body
	return b
}

// Encode marshals v as the body. A marshal failure turns the response
// into a 500.
func (b *JSONResponseBuilder) Encode(v any) *JSONResponseBuilder {
	body, err := json.Marshal(v)
	if err != nil {
		b.statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorBody{Error: "failed to encode response"})
	}
	b.body = body
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Encode(ErrorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded")
}

func ServiceUnavailableError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}

// ErrorFor maps an error from parsing or from the dashboard to a response.
// Store failures never leak their cause to the client.
func ErrorFor(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, core.ErrQueryFailed):
		return InternalServerError(core.ErrQueryFailed.Error())
	case errors.Is(err, ErrInvalidParam),
		errors.Is(err, core.ErrInvalidYear),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidLimit),
		errors.Is(err, core.ErrInvalidDirection):
		return BadRequestError(err.Error())
	default:
		return InternalServerError("internal server error")
	}
}
