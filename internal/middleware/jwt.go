package middleware

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/quillpost/quillpost/internal/auth"
	"github.com/quillpost/quillpost/internal/autherr"
	"github.com/quillpost/quillpost/internal/identity"
)

// AccessTokenResolver turns a bearer token into the active user it belongs to.
type AccessTokenResolver interface {
	ResolveAccessToken(ctx context.Context, token string) (identity.User, error)
}

// JWTAuth returns a middleware that requires a valid access token and stores
// the resolved user under auth.LocalsUserKey.
func JWTAuth(resolver AccessTokenResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := auth.BearerToken(c)
		if !ok {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		user, err := resolver.ResolveAccessToken(c.UserContext(), token)
		if err != nil {
			status := autherr.HTTPStatus(autherr.KindOf(err))
			if status == http.StatusUnauthorized {
				c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			}
			if status == http.StatusInternalServerError {
				return err
			}
			return fiber.NewError(status, autherr.Message(err))
		}

		c.Locals(auth.LocalsUserKey, user)
		return c.Next()
	}
}
