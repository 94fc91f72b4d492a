package catalogsrv

import (
	"github.com/gofiber/fiber/v2"
	"github.com/poacpm/api/pkg/errx"
)

// Handlers exposes the catalog read endpoints.
type Handlers struct {
	service *Service
}

// NewHandlers creates the HTTP handlers for the catalog.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the catalog routes on the app.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	app.Get("/v1/packages", h.all)
	app.Post("/v1/search", h.search)
	app.Get("/v1/packages/:name/versions", h.versionsOfficial)
	app.Get("/v1/packages/:org/:name/versions", h.versions)
	app.Post("/v1/repoinfo", h.repoInfo)
	app.Post("/v1/deps", h.deps)
}

func (h *Handlers) all(c *fiber.Ctx) error {
	packages, err := h.service.All(c.Context(), c.Query("filter"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": packages})
}

type searchBody struct {
	Query   string `json:"query"`
	PerPage int64  `json:"per_page"`
}

func (h *Handlers) search(c *fiber.Ctx) error {
	var body searchBody
	if err := c.BodyParser(&body); err != nil {
		return errx.Wrap(err, "invalid search body", errx.TypeValidation)
	}

	packages, err := h.service.Search(c.Context(), body.Query, body.PerPage)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": packages})
}

// versionsOfficial serves unscoped package names.
func (h *Handlers) versionsOfficial(c *fiber.Ctx) error {
	return h.respondVersions(c, c.Params("name"))
}

// versions serves org-scoped package names, joined as "org/name".
func (h *Handlers) versions(c *fiber.Ctx) error {
	return h.respondVersions(c, c.Params("org")+"/"+c.Params("name"))
}

func (h *Handlers) respondVersions(c *fiber.Ctx, name string) error {
	versions, err := h.service.Versions(c.Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": versions})
}

type nameVerBody struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (h *Handlers) repoInfo(c *fiber.Ctx) error {
	var body nameVerBody
	if err := c.BodyParser(&body); err != nil {
		return errx.Wrap(err, "invalid repoinfo body", errx.TypeValidation)
	}

	info, err := h.service.RepoInfo(c.Context(), body.Name, body.Version)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": info})
}

func (h *Handlers) deps(c *fiber.Ctx) error {
	var body nameVerBody
	if err := c.BodyParser(&body); err != nil {
		return errx.Wrap(err, "invalid deps body", errx.TypeValidation)
	}

	deps, err := h.service.Deps(c.Context(), body.Name, body.Version)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": deps})
}
