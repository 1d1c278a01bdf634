// Package http serves the SmartSave JSON API.
//
// This file implements the Builder Pattern for constructing responses. Every
// error leaves the API through ErrorResponse so clients always receive
// {"error": "..."}.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"smartsave/internal/assistant"
	"smartsave/internal/auth"
	"smartsave/internal/core"
	"smartsave/internal/csvimport"
	"smartsave/internal/log"
	"smartsave/internal/services"
)

// ResponseBuilder provides a fluent API for building responses.
type ResponseBuilder struct {
	statusCode  int
	headers     map[string]string
	contentType string
	body        []byte
	value       any
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v as the response body, encoded on Write.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.contentType = "application/json"
	b.value = v
	return b
}

// Text sets a raw body with the given content type.
func (b *ResponseBuilder) Text(contentType string, body []byte) *ResponseBuilder {
	b.contentType = contentType
	b.body = body
	return b
}

// Attachment marks the body as a download named filename.
func (b *ResponseBuilder) Attachment(filename string) *ResponseBuilder {
	return b.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	body := b.body
	if b.value != nil {
		encoded, err := json.Marshal(b.value)
		if err != nil {
			slog.Error("Failed to encode response", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			return
		}
		body = append(encoded, '\n')
	}
	if b.contentType != "" {
		w.Header().Set("Content-Type", b.contentType)
	}
	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// errorBody is the JSON shape of every error.
type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnauthorizedError creates a 401 Unauthorized error response.
func UnauthorizedError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError() *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal server error")
}

var errBadRequest = errors.New("bad request")

// clientErrors are returned to the client with their own message.
var clientErrors = []struct {
	err    error
	status int
}{
	{errBadRequest, http.StatusBadRequest},
	{core.ErrInvalidAmount, http.StatusBadRequest},
	{core.ErrInvalidDepositAmount, http.StatusBadRequest},
	{core.ErrEmptyDescription, http.StatusBadRequest},
	{core.ErrDescriptionTooLong, http.StatusBadRequest},
	{core.ErrEmptyCategory, http.StatusBadRequest},
	{core.ErrEmptyName, http.StatusBadRequest},
	{core.ErrInvalidPeriod, http.StatusBadRequest},
	{core.ErrInvalidDate, http.StatusBadRequest},
	{core.ErrMissingGoal, http.StatusBadRequest},
	{csvimport.ErrEmptyFile, http.StatusBadRequest},
	{csvimport.ErrMissingColumns, http.StatusBadRequest},
	{assistant.ErrEmptyQuestion, http.StatusBadRequest},
	{auth.ErrMissingCredentials, http.StatusBadRequest},
	{auth.ErrInvalidEmail, http.StatusBadRequest},
	{auth.ErrWeakPassword, http.StatusBadRequest},
	{auth.ErrInvalidWhatsApp, http.StatusBadRequest},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrInvalidSession, http.StatusUnauthorized},
	{auth.ErrExpiredSession, http.StatusUnauthorized},
	{core.ErrNotFound, http.StatusNotFound},
	{auth.ErrEmailTaken, http.StatusConflict},
	{core.ErrAlreadyExists, http.StatusConflict},
	{services.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
}

// errorStatus maps err to a status and a message safe to show the client.
func errorStatus(err error) (int, string) {
	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			if ce.err == errBadRequest {
				return ce.status, err.Error()
			}
			return ce.status, ce.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// respondError logs server errors and writes the mapped ErrorResponse.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	ErrorResponse(status, message).Write(w)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	NewResponse().Status(status).JSON(v).Write(w)
}
