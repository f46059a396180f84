package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stockroom/stockroom/internal/shared"
)

// Responder maps domain errors onto envelope responses.
type Responder struct {
	Logger *slog.Logger
	// ExposeErrors adds the raw error text to 500 responses.
	ExposeErrors bool
}

// NewResponder constructs a Responder.
func NewResponder(logger *slog.Logger, exposeErrors bool) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{Logger: logger, ExposeErrors: exposeErrors}
}

// Error writes err using the status implied by its kind. fallback is the
// message used for unexpected failures.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validation *shared.ValidationError
	switch {
	case errors.As(err, &validation):
		ValidationFailed(w, validation.Fields)
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, publicMessage(err, "Resource not found"))
	case errors.Is(err, shared.ErrRuleViolation):
		Fail(w, http.StatusBadRequest, publicMessage(err, fallback))
	case errors.Is(err, shared.ErrInvalidCredentials):
		Fail(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, shared.ErrUnauthenticated):
		Fail(w, http.StatusUnauthorized, "Unauthenticated.")
	default:
		rs.logger().Error(fallback,
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
		body := Envelope{Success: false, Message: fallback}
		if rs != nil && rs.ExposeErrors {
			body.Error = err.Error()
		}
		JSON(w, http.StatusInternalServerError, body)
	}
}

// Decode reads the JSON body into dst and validates it. Any failure is
// answered and false returned.
func (rs *Responder) Decode(w http.ResponseWriter, r *http.Request, v *Validator, dst any) bool {
	if err := DecodeJSON(r, dst); err != nil {
		ValidationFailed(w, map[string][]string{"body": {"The request body must be valid JSON."}})
		return false
	}
	if err := v.Struct(dst); err != nil {
		rs.Error(w, r, err, "Validation errors")
		return false
	}
	return true
}

func (rs *Responder) logger() *slog.Logger {
	if rs == nil || rs.Logger == nil {
		return slog.Default()
	}
	return rs.Logger
}

func publicMessage(err error, fallback string) string {
	var domainErr *shared.Error
	if errors.As(err, &domainErr) {
		return domainErr.Error()
	}
	return fallback
}
