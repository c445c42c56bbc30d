package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/quillpost/quillpost/internal/config"
	"github.com/quillpost/quillpost/internal/notification"
	"github.com/quillpost/quillpost/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app        *fiber.App
	cfg        config.Config
	dispatcher *notification.Dispatcher
	logger     *slog.Logger
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	dispatcher := notification.NewDispatcher(newNotifier(cfg, logger), cfg.NotifyTimeout, logger)

	deps := routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger, Notifier: dispatcher}
	if err := routes.Setup(app, deps); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, dispatcher: dispatcher, logger: logger}, nil
}

// App exposes the underlying fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server, then waits for queued notifications.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return err
	}
	if err := s.dispatcher.Wait(ctx); err != nil {
		s.logger.Warn("pending notifications dropped", slog.Any("error", err))
	}
	return nil
}

func newNotifier(cfg config.Config, logger *slog.Logger) notification.Notifier {
	if cfg.SMTP.Host == "" {
		return notification.NewLoggerNotifier(logger)
	}
	return notification.NewSMTPNotifier(cfg.SMTP)
}

// errorHandler renders every error as {"detail": message}. Internal errors
// never leak their text.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := http.StatusInternalServerError
		detail := http.StatusText(status)

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			detail = fe.Message
		} else {
			logger.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
		}

		return c.Status(status).JSON(fiber.Map{"detail": detail})
	}
}
