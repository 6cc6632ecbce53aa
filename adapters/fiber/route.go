// Package fiber exposes the auth operations over HTTP with Fiber v3.
package fiber

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/lborres/silid/core"
	"github.com/lborres/silid/services"
)

type Adapter struct {
	app  *fiber.App
	auth core.AuthHandler
	log  logrus.FieldLogger
}

var _ core.HTTPAdapter = (*Adapter)(nil)

type Option func(*Adapter)

// WithLogger sets where failed requests are logged.
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

func New(app *fiber.App, opts ...Option) *Adapter {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	a := &Adapter{app: app, log: quiet}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RegisterRoutes mounts every base endpoint under basePath, wrapping
// protected ones in RequireAuth and role-restricted ones in RequireRole.
func (a *Adapter) RegisterRoutes(handler core.AuthHandler, basePath string) error {
	if handler == nil {
		return fmt.Errorf("auth handler is required")
	}
	a.auth = handler

	registry, err := services.NewEndpointRegistry()
	if err != nil {
		return err
	}

	handlers := map[string]fiber.Handler{
		services.OpRegister:       a.register,
		services.OpLogin:          a.login,
		services.OpLogout:         a.logout,
		services.OpMe:             a.me,
		services.OpGetProfile:     a.getProfile,
		services.OpUpdateProfile:  a.updateProfile,
		services.OpChangePassword: a.changePassword,
		services.OpSetRole:        a.setRole,
		services.OpSetActive:      a.setActive,
	}

	api := a.app.Group(basePath)

	for _, ep := range registry.Endpoints() {
		h, ok := handlers[ep.Metadata.OperationID]
		if !ok {
			return fmt.Errorf("no handler for operation %q", ep.Metadata.OperationID)
		}

		methods := []string{ep.Method}
		switch {
		case ep.Protected && len(ep.Roles) > 0:
			api.Add(methods, ep.Path, a.RequireAuth, a.RequireRole(ep.Roles...), h)
		case ep.Protected:
			api.Add(methods, ep.Path, a.RequireAuth, h)
		default:
			api.Add(methods, ep.Path, h)
		}
	}

	return nil
}
