package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/MJE43/mindful-arcade/internal/arcade"
	"github.com/MJE43/mindful-arcade/internal/challenge"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause records the underlying error message
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final APIError
func (eb *ErrorBuilder) Build() APIError {
	var ctx map[string]any
	if len(eb.context) > 0 {
		ctx = eb.context
	}
	return APIError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   ctx,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// classify maps domain sentinels to an error type and HTTP status.
func classify(err error) (string, int) {
	var apiErr APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Type, http.StatusBadRequest
	case errors.Is(err, arcade.ErrUnknownGame):
		return ErrTypeGameNotFound, http.StatusNotFound
	case errors.Is(err, arcade.ErrUnsupportedAction):
		return ErrTypeUnsupportedAction, http.StatusBadRequest
	case errors.Is(err, challenge.ErrUnknownChallenge):
		return ErrTypeChallengeNotFound, http.StatusNotFound
	case errors.Is(err, challenge.ErrNotEligible):
		return ErrTypeNotEligible, http.StatusUnprocessableEntity
	case errors.Is(err, challenge.ErrAlreadyClaimed):
		return ErrTypeAlreadyClaimed, http.StatusConflict
	default:
		return ErrTypeInternal, http.StatusInternalServerError
	}
}

// ErrorHandler writes and logs structured errors
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError maps err to a status and writes it. Internal errors keep their
// cause out of the response message.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	errType, status := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}

	apiErr := NewError(errType, message).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method)
	if status == http.StatusInternalServerError {
		apiErr.WithCause(err)
	}
	eh.write(w, r, status, apiErr.Build())
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	apiErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		Build()
	eh.write(w, r, http.StatusBadRequest, apiErr)
}

func (eh *ErrorHandler) write(w http.ResponseWriter, r *http.Request, status int, apiErr APIError) {
	eh.logError(r, apiErr, status)
	writeErrorResponse(w, status, apiErr)
}

// logError logs at warn for client errors and error for server errors.
func (eh *ErrorHandler) logError(r *http.Request, apiErr APIError, status int) {
	fields := []zap.Field{
		zap.String("type", apiErr.Type),
		zap.String("category", string(GetErrorCategory(apiErr.Type))),
		zap.Int("status", status),
		zap.String("request_id", apiErr.RequestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_ip", r.RemoteAddr),
	}
	if cause, ok := apiErr.Context["cause"]; ok {
		fields = append(fields, zap.Any("cause", cause))
	}
	if status >= http.StatusInternalServerError {
		eh.logger.Error(apiErr.Message, fields...)
		return
	}
	eh.logger.Warn(apiErr.Message, fields...)
}

func writeErrorResponse(w http.ResponseWriter, status int, apiErr APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Arcade-Version", ArcadeVersion)
	w.Header().Set("X-Error-Type", apiErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(apiErr.Type)))
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiErr)
}

// RecoveryHandler turns panics into a structured 500
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			requestID := middleware.GetReqID(r.Context())
			eh.logger.Error("panic recovered",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
				zap.Any("panic", rvr),
				zap.Stack("stack"),
			)
			apiErr := NewError(ErrTypeInternal, "Internal server error").
				WithRequestID(requestID).
				WithContext("path", r.URL.Path).
				Build()
			writeErrorResponse(w, http.StatusInternalServerError, apiErr)
		}()

		next.ServeHTTP(w, r)
	})
}
