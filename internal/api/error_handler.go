package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-directory/internal/core/domain"
)

// Error codes carried in the envelope.
const (
	codeValidation       = "validation_error"
	codeNotFound         = "not_found"
	codeConflict         = "conflict"
	codeBadRequest       = "bad_request"
	codeRateLimited      = "rate_limited"
	codeMethodNotAllowed = "method_not_allowed"
	codeInternal         = "internal_error"
	codeHTTP             = "http_error"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error errorBody `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": {"code", "message", "field"}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, errorResponse{Error: body})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorBody) {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		ce *domain.ConflictError
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, errorBody{Code: codeValidation, Message: ve.Reason, Field: ve.Field}
	case errors.As(err, &nf):
		return http.StatusNotFound, errorBody{Code: codeNotFound, Message: nf.Resource + " not found"}
	case errors.As(err, &ce):
		return http.StatusConflict, errorBody{Code: codeConflict, Message: ce.Field + " already exists", Field: ce.Field}
	case errors.As(err, &he):
		// Echo's own errors (bind failures, 404 from router, rate limiter, etc.)
		return he.Code, errorBody{Code: httpErrorCode(he.Code), Message: fmt.Sprintf("%v", he.Message)}
	}

	// Unexpected error: log the real cause, return a generic message.
	logger := zerolog.Ctx(c.Request().Context())
	if logger.GetLevel() == zerolog.Disabled {
		logger = &log
	}
	logger.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorBody{Code: codeInternal, Message: "internal server error"}
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return codeBadRequest
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusMethodNotAllowed:
		return codeMethodNotAllowed
	case http.StatusTooManyRequests:
		return codeRateLimited
	case http.StatusUnprocessableEntity:
		return codeValidation
	case http.StatusInternalServerError:
		return codeInternal
	default:
		return codeHTTP
	}
}
