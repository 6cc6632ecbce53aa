package fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/silid/core"
)

type successResponse struct {
	Success bool `json:"success"`
}

type userResponse struct {
	User any `json:"user"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

type setActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

func (a *Adapter) register(c fiber.Ctx) error {
	var input core.RegisterInput
	if err := c.Bind().Body(&input); err != nil {
		return a.handleAuthError(c, core.ErrInvalidRequestBody)
	}

	result, err := a.auth.Register(c.Context(), input, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return a.handleAuthError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(result)
}

func (a *Adapter) login(c fiber.Ctx) error {
	var input core.LoginInput
	if err := c.Bind().Body(&input); err != nil {
		return a.handleAuthError(c, core.ErrInvalidRequestBody)
	}

	result, err := a.auth.Login(c.Context(), input, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return a.handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(result)
}

// logout succeeds for missing, unknown and already revoked tokens alike.
func (a *Adapter) logout(c fiber.Ctx) error {
	if err := a.auth.Logout(c.Context(), extractToken(c)); err != nil {
		return a.handleAuthError(c, err)
	}

	c.ClearCookie(AuthCookie)
	return c.Status(http.StatusOK).JSON(successResponse{Success: true})
}

func (a *Adapter) me(c fiber.Ctx) error {
	identity, ok := IdentityFrom(c)
	if !ok {
		return a.handleAuthError(c, core.ErrMissingAuthHeader)
	}
	return c.Status(http.StatusOK).JSON(userResponse{User: identity})
}

func (a *Adapter) getProfile(c fiber.Ctx) error {
	identity, ok := IdentityFrom(c)
	if !ok {
		return a.handleAuthError(c, core.ErrMissingAuthHeader)
	}

	user, err := a.auth.GetUser(c.Context(), identity.ID)
	if err != nil {
		return a.handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(userResponse{User: user})
}

func (a *Adapter) updateProfile(c fiber.Ctx) error {
	identity, ok := IdentityFrom(c)
	if !ok {
		return a.handleAuthError(c, core.ErrMissingAuthHeader)
	}

	fields := make(map[string]any)
	if err := c.Bind().Body(&fields); err != nil {
		return a.handleAuthError(c, core.ErrInvalidRequestBody)
	}

	user, err := a.auth.UpdateProfile(c.Context(), identity.ID, fields)
	if err != nil {
		return a.handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(userResponse{User: user})
}

func (a *Adapter) changePassword(c fiber.Ctx) error {
	identity, ok := IdentityFrom(c)
	if !ok {
		return a.handleAuthError(c, core.ErrMissingAuthHeader)
	}

	var input core.ChangePasswordInput
	if err := c.Bind().Body(&input); err != nil {
		return a.handleAuthError(c, core.ErrInvalidRequestBody)
	}

	if err := a.auth.ChangePassword(c.Context(), identity.ID, input.OldPassword, input.NewPassword); err != nil {
		return a.handleAuthError(c, err)
	}

	// every session is gone, including this one
	c.ClearCookie(AuthCookie)
	return c.Status(http.StatusOK).JSON(successResponse{Success: true})
}

func (a *Adapter) setRole(c fiber.Ctx) error {
	var input setRoleRequest
	if err := c.Bind().Body(&input); err != nil {
		return a.handleAuthError(c, core.ErrInvalidRequestBody)
	}

	if err := a.auth.SetRole(c.Context(), c.Params("id"), core.Role(input.Role)); err != nil {
		return a.handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(successResponse{Success: true})
}

func (a *Adapter) setActive(c fiber.Ctx) error {
	var input setActiveRequest
	if err := c.Bind().Body(&input); err != nil || input.IsActive == nil {
		return a.handleAuthError(c, core.ErrInvalidRequestBody)
	}

	if err := a.auth.SetActive(c.Context(), c.Params("id"), *input.IsActive); err != nil {
		return a.handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(successResponse{Success: true})
}
