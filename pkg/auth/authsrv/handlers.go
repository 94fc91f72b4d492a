package authsrv

import (
	"github.com/gofiber/fiber/v2"
	"github.com/poacpm/api/pkg/errx"
)

// Handlers exposes the login callback over HTTP.
type Handlers struct {
	service *Service
	encoder RedirectEncoder
}

// NewHandlers creates the HTTP handlers for the auth flow.
func NewHandlers(service *Service, encoder RedirectEncoder) *Handlers {
	return &Handlers{service: service, encoder: encoder}
}

// RegisterRoutes registers the auth routes on the app.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	app.Get("/api/auth/callback", h.callback)
}

// callback handles the provider redirect carrying the single-use
// authorization code and answers with the frontend redirect.
func (h *Handlers) callback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return errx.New("missing authorization code", errx.TypeValidation)
	}

	result, err := h.service.Callback(c.Context(), code)
	if err != nil {
		return err
	}

	location, err := h.encoder.Encode(result.User, result.Token)
	if err != nil {
		return err
	}

	return c.Redirect(location, fiber.StatusTemporaryRedirect)
}
