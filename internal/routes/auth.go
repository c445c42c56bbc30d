package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quillpost/quillpost/internal/auth"
)

// RegisterAuthRoutes wires authentication endpoints. rateLimiter guards the
// credential exchanges; requireUser guards the profile endpoint.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter, requireUser fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/register", h.Register)
	group.Post("/token", rateLimiter, h.Token)
	group.Post("/login", rateLimiter, h.Login)
	group.Post("/refresh", h.Refresh)
	group.Get("/verify-token", h.VerifyToken)
	group.Get("/me", requireUser, h.Me)
	group.Patch("/last_login/:username", h.LastLogin)
}
