package fiber

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/silid/core"
)

const internalErrorMessage = "internal server error"

// handleAuthError maps service errors to HTTP responses. Anything unmapped is
// logged and reported without detail.
func (a *Adapter) handleAuthError(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		a.log.WithError(err).WithField("path", c.Path()).Error("request failed")
		message = internalErrorMessage
	}

	return c.Status(status).JSON(core.ErrorResponse{Error: message})
}

// mapErrorToStatus maps core error types to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, core.ErrDuplicateEmail):
		return http.StatusConflict

	case errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, core.ErrInvalidOrExpiredToken),
		errors.Is(err, core.ErrMissingAuthHeader):
		return http.StatusUnauthorized

	case errors.Is(err, core.ErrAccountDeactivated),
		errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, core.ErrUserNotFound):
		return http.StatusNotFound

	case errors.Is(err, core.ErrNoValidFields),
		errors.Is(err, core.ErrInvalidRequestBody),
		errors.Is(err, core.ErrNameRequired),
		errors.Is(err, core.ErrEmailRequired),
		errors.Is(err, core.ErrPasswordRequired),
		errors.Is(err, core.ErrPasswordTooLong),
		errors.Is(err, core.ErrInvalidEmail),
		errors.Is(err, core.ErrInvalidRole),
		errors.Is(err, core.ErrInvalidProfileField),
		errors.Is(err, core.ErrRoleNotSelfAssigned):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
