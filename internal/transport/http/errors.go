package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/duochat-server/internal/auth"
	"github.com/vovakirdan/duochat-server/internal/service/errs"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a plain confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

const internalErrorMessage = "internal server error"

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUserExists),
		errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrInvalidUsername),
		errors.Is(err, auth.ErrInvalidPassword),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrInvalidName):
		return http.StatusBadRequest
	}

	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindNotAcceptable, errs.KindBlocked, errs.KindValidation:
		return http.StatusNotAcceptable
	case errs.KindAlreadyExists:
		return http.StatusConflict
	case errs.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends the mapped status and message. Unexpected errors are
// logged and hidden behind a generic body.
func writeError(c *gin.Context, logger *zerolog.Logger, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
		c.JSON(status, ErrorResponse{Error: internalErrorMessage})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, logger *zerolog.Logger, err error) {
	logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("invalid request body")
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
}
