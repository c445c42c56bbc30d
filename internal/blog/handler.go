package blog

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/quillpost/quillpost/internal/auth"
)

// Handler exposes blog HTTP endpoints. Every route expects the bearer auth
// middleware to have run.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds a blog HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type draftRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type postResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AuthorID    int64      `json:"author_id"`
	CreatedDate time.Time  `json:"created_date"`
	EditDate    *time.Time `json:"edit_date"`
}

func toPostResponse(p Post) postResponse {
	return postResponse{ID: p.ID, Title: p.Title, Description: p.Description, AuthorID: p.AuthorID, CreatedDate: p.CreatedAt, EditDate: p.EditedAt}
}

// List returns the caller's posts.
func (h *Handler) List(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	posts, err := h.service.List(c.UserContext(), user.ID)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Create publishes a new post for the caller.
func (h *Handler) Create(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req draftRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	post, err := h.service.Create(c.UserContext(), user.ID, Draft{Title: req.Title, Description: req.Description})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "Blog created", "blog": toPostResponse(post)})
}

// Get returns one of the caller's posts.
func (h *Handler) Get(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid blog id")
	}
	post, err := h.service.Get(c.UserContext(), user.ID, int64(id))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(toPostResponse(post))
}

// Update edits one of the caller's posts.
func (h *Handler) Update(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid blog id")
	}
	var req draftRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	post, err := h.service.Update(c.UserContext(), user.ID, int64(id), Draft{Title: req.Title, Description: req.Description})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Blog updated", "blog": toPostResponse(post)})
}

// Delete removes one of the caller's posts.
func (h *Handler) Delete(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid blog id")
	}
	if err := h.service.Delete(c.UserContext(), user.ID, int64(id)); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateTitle), errors.Is(err, ErrInvalidPost):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("blog request failed", slog.String("path", c.Path()), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
