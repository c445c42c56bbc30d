// Command userctl flips the active flag of an account. Deactivated users
// cannot log in and their outstanding tokens stop resolving.
//
//	userctl -deactivate alice
//	userctl -activate alice
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/quillpost/quillpost/internal/auth"
	"github.com/quillpost/quillpost/internal/autherr"
	"github.com/quillpost/quillpost/internal/config"
	"github.com/quillpost/quillpost/internal/identity"
	"github.com/quillpost/quillpost/internal/infra"
	"github.com/quillpost/quillpost/internal/logging"
)

func main() {
	activate := flag.String("activate", "", "username to activate")
	deactivate := flag.String("deactivate", "", "username to deactivate")
	flag.Parse()

	username, active, err := target(*activate, *deactivate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.AppName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, infra.PoolOptions{ApplicationName: cfg.AppName + "-userctl", MaxConns: 2})
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	hasher := auth.NewHasher(cfg.Password.BcryptCost, 1)
	svc := identity.NewService(identity.NewPostgresRepository(db), hasher)

	user, err := svc.SetActive(ctx, username, active)
	if errors.Is(err, autherr.ErrUserNotFound) {
		fmt.Fprintf(os.Stderr, "user %q not found\n", username)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("update user", "username", username, "error", err)
		os.Exit(1)
	}

	logger.Info("user updated", "username", user.Username, "is_active", user.IsActive)
}

func target(activate, deactivate string) (string, bool, error) {
	switch {
	case activate != "" && deactivate != "":
		return "", false, errors.New("use only one of -activate or -deactivate")
	case activate != "":
		return activate, true, nil
	case deactivate != "":
		return deactivate, false, nil
	default:
		return "", false, errors.New("a username is required")
	}
}
