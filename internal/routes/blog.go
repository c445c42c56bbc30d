package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quillpost/quillpost/internal/blog"
)

// RegisterBlogRoutes wires the per-author blog endpoints behind bearer auth.
// idempotency may be nil when no cache is available.
func RegisterBlogRoutes(r fiber.Router, h *blog.Handler, requireUser, idempotency fiber.Handler) {
	handlers := []fiber.Handler{requireUser}
	if idempotency != nil {
		handlers = append(handlers, idempotency)
	}
	group := r.Group("/blogs", handlers...)
	group.Get("/all_blogs", h.List)
	group.Post("/create", h.Create)
	group.Get("/:id", h.Get)
	group.Put("/:id", h.Update)
	group.Delete("/:id", h.Delete)
}
