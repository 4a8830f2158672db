package engine

import "github.com/gofiber/fiber/v2"

// RegisterAdminRoutes mounts the table-driven admin API. The login/logout
// routes under /admin are registered by the auth package before this, so
// they win over the :table wildcard.
func RegisterAdminRoutes(app *fiber.App, h *Handler) {
	adm := app.Group("/admin")

	adm.Get("/", h.Index)

	adm.Get("/:table", h.List)
	adm.Post("/:table", h.Create)
	adm.Get("/:table/add", h.CreateForm)
	adm.Post("/:table/bulk-delete", h.BulkDelete)
	adm.Get("/:table/:id/edit", h.UpdateForm)
	adm.Get("/:table/:id", h.GetByID)
	adm.Put("/:table/:id", h.Update)
	adm.Delete("/:table/:id", h.Delete)
}
