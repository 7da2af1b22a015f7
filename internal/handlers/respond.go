package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/mailsmithapp/mailsmith/internal/errs"
	"github.com/mailsmithapp/mailsmith/internal/logging"
	"github.com/mailsmithapp/mailsmith/internal/observability"
	"github.com/mailsmithapp/mailsmith/internal/services"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(r.Context(), nil).Error("failed to encode response", "error", err)
	}
}

// statusFor maps an error to the HTTP status and the message shown to the
// caller. Authentication and generation failures never expose their cause.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrGeneration):
		return http.StatusInternalServerError, "Failed to generate email content"
	case errors.Is(err, services.ErrMissingParams):
		return http.StatusBadRequest, "Missing required parameters"
	case errors.Is(err, errs.ErrAuthentication):
		return http.StatusUnauthorized, "Invalid or expired authorization"
	case errors.Is(err, errs.ErrExchangeFailed):
		return http.StatusBadRequest, "Failed to complete Shopify authorization"
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, errs.ErrFeatureDisabled):
		return http.StatusServiceUnavailable, "Feature not configured"
	case errors.Is(err, errs.ErrDecryption):
		return http.StatusInternalServerError, "Stored credentials could not be read"
	case errors.Is(err, errs.ErrNetwork):
		return http.StatusBadGateway, "Upstream service unavailable"
	case errors.Is(err, errs.ErrConfiguration):
		return http.StatusInternalServerError, "Server is not configured for this request"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeError logs err and writes the {success:false, message} envelope.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	h.logFailure(r, status, err)
	writeJSON(w, r, status, errorResponse{Success: false, Message: message})
}

// logFailure logs the error. How much of the wrapped chain is kept is
// decided by the logger's ReplaceAttr, see logging.ErrorDetail.
func (h *Handlers) logFailure(r *http.Request, status int, err error) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
		observability.MeterFromContext(ctx).Count("http.server.failures", 1,
			sentry.WithAttributes(attribute.String("error.summary", logging.Summarize(err))),
		)
		return
	}
	logger.Warn("request rejected", "status", status, "error", err)
}
