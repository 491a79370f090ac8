// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package respond provides unified response writers for the server.

It ensures that every HTTP response, whether a JSON payload, a binary asset or
an error diagnostic, follows a predictable structure for client robustness.

Architecture:

  - JSON: Envelope responses for API/status endpoints.
  - Binary: PNG, ZIP and plain-text writers for the asset surface.
  - Errors: Integrates with 'apperr'; asset errors render as plain text.

This package eliminates the need for manual content-type juggling in individual
handlers.
*/
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pmdcollab/spritecollab-srv/internal/platform/apperr"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/ctxkey"
)

// # JSON Envelopes

// SuccessEnvelope is the JSON envelope for successful single-resource responses.
type SuccessEnvelope struct {
	Data interface{} `json:"data"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// # Response Helpers

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {

	// Set the common JSON header
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")

	// Write the status first
	writer.WriteHeader(statusCode)

	// Encode the payload directly to the stream
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// # Asset Writers

// PNG writes image bytes with the image/png media type.
func PNG(writer http.ResponseWriter, data []byte) {
	writer.Header().Set("Content-Type", "image/png")
	writer.Header().Set("Content-Length", strconv.Itoa(len(data)))
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(data)
}

// Zip writes archive bytes as an attachment download.
func Zip(writer http.ResponseWriter, data []byte, filename string) {
	writer.Header().Set("Content-Type", "application/zip")
	writer.Header().Set("Content-Disposition", "attachment; filename="+filename)
	writer.Header().Set("Content-Length", strconv.Itoa(len(data)))
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(data)
}

// Text writes a plain-text body.
func Text(writer http.ResponseWriter, statusCode int, body string) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.WriteHeader(statusCode)
	_, _ = writer.Write([]byte(body))
}

// # Error Handling

// Error converts any Go error into a standardized JSON API error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	appError := toAppError(writer, request, err)

	// Write the final standardized JSON error payload
	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Error: appError.Message,
		Code:  appError.Code,
	})
}

// AssetError renders an error for the binary asset surface as plain text.
func AssetError(writer http.ResponseWriter, request *http.Request, err error) {
	appError := toAppError(writer, request, err)
	Text(writer, appError.HTTPStatus, appError.Message)
}

// toAppError normalizes err into an [*apperr.AppError] and logs server faults.
func toAppError(_ http.ResponseWriter, request *http.Request, err error) *apperr.AppError {
	var appError *apperr.AppError

	// If the error is not already an [apperr.AppError], wrap it as an Internal Server Error
	if !errors.As(err, &appError) {
		appError = apperr.Internal(err)
	}

	// Log the raw details internally for debugging
	if appError.HTTPStatus >= 500 {
		logger := getLoggerFromContext(request)
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("path", request.URL.Path),
			slog.String("request_id", getRequestIDFromContext(request)),
			slog.Any("cause", appError.Cause),
		)
	}

	return appError
}

// getLoggerFromContext extracts the per-request logger.
func getLoggerFromContext(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// getRequestIDFromContext extracts the X-Request-ID for log correlation.
func getRequestIDFromContext(request *http.Request) string {
	if id, ok := request.Context().Value(ctxkey.KeyRequestID).(string); ok {
		return id
	}
	return ""
}
