package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/quillpost/quillpost/internal/auth"
	"github.com/quillpost/quillpost/internal/blog"
	"github.com/quillpost/quillpost/internal/config"
	"github.com/quillpost/quillpost/internal/identity"
	"github.com/quillpost/quillpost/internal/middleware"
	"github.com/quillpost/quillpost/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Notifier auth.Notifier
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}
	if d.Notifier == nil {
		d.Notifier = notification.NewDispatcher(notification.NewLoggerNotifier(d.Logger), d.Cfg.NotifyTimeout, d.Logger)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(d.Cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Request-ID",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Services and handlers
	var (
		identityRepo identity.Repository
		blogRepo     blog.Repository
	)
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
		blogRepo = blog.NewPostgresRepository(d.DB)
	} else {
		d.Logger.Warn("no database configured, using in-memory stores")
		identityRepo = identity.NewMemoryRepository()
		blogRepo = blog.NewMemoryRepository()
	}

	hasher := auth.NewHasher(d.Cfg.Password.BcryptCost, d.Cfg.Password.MaxConcurrency)
	codec, err := auth.NewCodec(d.Cfg.Token)
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}
	identitySvc := identity.NewService(identityRepo, hasher)
	authn := auth.NewAuthenticator(d.Cfg.Token, identitySvc, hasher, codec, d.Notifier, d.Logger)
	authHandler := auth.NewHandler(authn, identitySvc, d.Logger)
	blogHandler := blog.NewHandler(blog.NewService(blogRepo), d.Logger)

	jwtmw := middleware.JWTAuth(authn)
	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit)
	RegisterAuthRoutes(app, authHandler, rateLimiter, jwtmw)

	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}
	RegisterBlogRoutes(app, blogHandler, jwtmw, idempotency)

	return nil
}
