package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/quillpost/quillpost/internal/autherr"
	"github.com/quillpost/quillpost/internal/identity"
)

// LocalsUserKey is the fiber.Ctx locals key holding the authenticated identity.User.
const LocalsUserKey = "auth.user"

// Handler exposes auth endpoints for register/login/refresh/introspection.
type Handler struct {
	authn  *Authenticator
	ids    *identity.Service
	logger *slog.Logger
}

func NewHandler(authn *Authenticator, ids *identity.Service, logger *slog.Logger) *Handler {
	return &Handler{authn: authn, ids: ids, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
}

func toUserResponse(u identity.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, IsActive: u.IsActive, LastLogin: u.LastLogin, CreatedAt: u.CreatedAt}
}

// Register creates an account. The password hash never leaves the server.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.authn.Register(c.UserContext(), identity.Registration{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(toUserResponse(user))
}

// Token is the OAuth2-style password grant taking form-encoded credentials.
func (h *Handler) Token(c *fiber.Ctx) error {
	return h.login(c)
}

// Login is the JSON variant of Token.
func (h *Handler) Login(c *fiber.Ctx) error {
	return h.login(c)
}

func (h *Handler) login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "username and password are required")
	}
	_, session, err := h.authn.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(session)
}

// Refresh issues a new access token using a valid refresh token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.RefreshToken == "" {
		return fiber.NewError(http.StatusBadRequest, "refresh_token is required")
	}
	grant, err := h.authn.RefreshSession(c.UserContext(), req.RefreshToken)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(grant)
}

// VerifyToken reports whether the presented access token is currently valid.
// The token is read from the Authorization header, or from the token query
// parameter for older clients.
func (h *Handler) VerifyToken(c *fiber.Ctx) error {
	token, ok := BearerToken(c)
	if !ok {
		token = c.Query("token")
	}
	if token == "" {
		return h.fail(c, autherr.ErrTokenInvalid)
	}
	user, left, err := h.authn.Inspect(c.UserContext(), token)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status": "valid",
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
		"time_left_seconds": int64(left.Seconds()),
	})
}

// Me returns the public profile of the authenticated user.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, ok := CurrentUser(c)
	if !ok {
		return h.fail(c, autherr.ErrTokenInvalid)
	}
	return c.Status(http.StatusOK).JSON(toUserResponse(user))
}

// LastLogin stamps the named user's last login time.
func (h *Handler) LastLogin(c *fiber.Ctx) error {
	user, err := h.ids.TouchLastLogin(c.UserContext(), c.Params("username"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Successful", "user": toUserResponse(user)})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, identity.ErrInvalidRegistration) {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	kind := autherr.KindOf(err)
	status := autherr.HTTPStatus(kind)
	if status == http.StatusInternalServerError {
		h.logger.Error("auth request failed", slog.String("path", c.Path()), slog.Any("error", err))
		return fiber.NewError(status, http.StatusText(status))
	}
	if status == http.StatusUnauthorized {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	}
	return fiber.NewError(status, autherr.Message(err))
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authz := c.Get(fiber.HeaderAuthorization)
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CurrentUser returns the user stored by the bearer auth middleware.
func CurrentUser(c *fiber.Ctx) (identity.User, bool) {
	user, ok := c.Locals(LocalsUserKey).(identity.User)
	return user, ok
}
