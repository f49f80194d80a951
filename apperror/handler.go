package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/teamboard_backend/models"
)

// HTTPErrorHandler renders every error as a models.Response. In production the
// message of a 5xx is replaced by a generic one; the cause is always logged.
func HTTPErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal server error"
		var fields []FieldError

		var ae *AppError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			code, message, fields = ae.Code, ae.Message, ae.Fields
		case errors.As(err, &he):
			code = he.Code
			message = fmt.Sprint(he.Message)
		default:
			if fe := FromValidator(err); fe != nil {
				code, message, fields = http.StatusBadRequest, "Validation failed", fe
			}
		}

		event := log.Warn()
		if code >= http.StatusInternalServerError {
			event = log.Error()
			if production {
				message = "Internal server error"
			}
		}
		event.Err(err).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Int("status", code).
			Msg("request failed")

		resp := models.Response{Status: code, Message: message}
		if len(fields) > 0 {
			resp.Errors = fields
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, resp)
		}
		if werr != nil {
			log.Error().Err(werr).Msg("failed to write error response")
		}
	}
}
