package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"LajmeCurator/internal/curation"
	"LajmeCurator/internal/usecase"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// NewHTTPErrorHandler converts handler errors into ErrorResponse bodies.
// Caller mistakes are logged at Debug; everything else is a fault.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := mapError(err)
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"request_id", requestID,
				"status", status,
				"path", c.Path(),
				"error", err)
		} else {
			logger.Debug("request rejected",
				"request_id", requestID,
				"status", status,
				"error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("failed to send error response", "request_id", requestID, "error", err)
		}
	}
}

func mapError(err error) (int, ErrorResponse) {
	var (
		pe *paramError
		ve validator.ValidationErrors
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &pe):
		return http.StatusBadRequest, ErrorResponse{
			Error:   "invalid query parameter",
			Details: map[string]string{pe.Param: pe.Reason},
		}
	case errors.As(err, &ve):
		details := make(map[string]string, len(ve))
		for _, fe := range ve {
			details[fe.Field()] = "failed on " + fe.Tag()
		}
		return http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: details}
	case errors.Is(err, curation.ErrInvalidThreshold),
		errors.Is(err, curation.ErrInvalidMode),
		errors.Is(err, usecase.ErrInvalidUser):
		return http.StatusBadRequest, ErrorResponse{Error: "invalid argument", Details: err.Error()}
	case errors.Is(err, usecase.ErrQuotaExceeded):
		return http.StatusTooManyRequests, ErrorResponse{Error: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "request timed out"}
	case errors.As(err, &he):
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		return he.Code, ErrorResponse{Error: msg}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Details: err.Error()}
	}
}
