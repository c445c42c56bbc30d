package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quillpost/quillpost/internal/autherr"
	"github.com/quillpost/quillpost/internal/config"
	"github.com/quillpost/quillpost/internal/identity"
	"github.com/quillpost/quillpost/internal/notification"
)

const timingDecoyPassword = "quillpost-timing-decoy"

// PasswordHasher is the hashing capability the authenticator relies on.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) bool
}

// Notifier accepts fire-and-forget notifications.
type Notifier interface {
	Dispatch(message notification.Message)
}

// Session is the token pair handed out on login.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AccessGrant is the result of a refresh: a new access token only.
type AccessGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Authenticator verifies credentials and issues and validates tokens. It
// holds no per-request state; all state lives in the credential store or in
// the token itself.
type Authenticator struct {
	cfg      config.TokenConfig
	ids      *identity.Service
	hasher   PasswordHasher
	codec    *Codec
	notifier Notifier
	logger   *slog.Logger

	decoyOnce sync.Once
	decoyHash string
}

// NewAuthenticator wires the authenticator. notifier may be nil.
func NewAuthenticator(cfg config.TokenConfig, ids *identity.Service, hasher PasswordHasher, codec *Codec, notifier Notifier, logger *slog.Logger) *Authenticator {
	return &Authenticator{cfg: cfg, ids: ids, hasher: hasher, codec: codec, notifier: notifier, logger: logger}
}

// Register creates an account and sends the welcome notification.
func (a *Authenticator) Register(ctx context.Context, reg identity.Registration) (identity.User, error) {
	user, err := a.ids.Register(ctx, reg)
	if err != nil {
		return identity.User{}, err
	}
	a.notify(notification.Welcome(user.Email, user.Username))
	a.logger.Info("auth.register completed", slog.Int64("user_id", user.ID), slog.String("username", user.Username))
	return user, nil
}

// Authenticate checks username and password. Unknown users and wrong
// passwords both fail with autherr.ErrInvalidCredentials. Account status is
// not checked here.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (identity.User, error) {
	user, err := a.ids.Repository().FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, identity.ErrNotFound) {
			return identity.User{}, fmt.Errorf("lookup user: %w", err)
		}
		// Pay for one bcrypt comparison anyway so response time does not reveal the miss.
		a.hasher.Verify(ctx, password, a.decoy(ctx))
		return identity.User{}, autherr.ErrInvalidCredentials
	}
	if !a.hasher.Verify(ctx, password, user.PasswordHash) {
		return identity.User{}, autherr.ErrInvalidCredentials
	}
	return user, nil
}

// IssueSession mints an access and refresh token for an active user.
func (a *Authenticator) IssueSession(user identity.User) (Session, error) {
	if !user.IsActive {
		return Session{}, autherr.ErrAccountInactive
	}
	access, _, err := a.codec.Encode(user.Username, TokenTypeAccess, a.cfg.AccessTokenTTL)
	if err != nil {
		return Session{}, err
	}
	refresh, _, err := a.codec.Encode(user.Username, TokenTypeRefresh, a.cfg.RefreshTokenTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(a.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// Login authenticates, rejects inactive accounts before any token is
// minted, issues a session and records the login.
func (a *Authenticator) Login(ctx context.Context, username, password string) (identity.User, Session, error) {
	user, err := a.Authenticate(ctx, username, password)
	if err != nil {
		return identity.User{}, Session{}, err
	}
	session, err := a.IssueSession(user)
	if err != nil {
		return identity.User{}, Session{}, err
	}

	if touched, err := a.ids.TouchLastLogin(ctx, user.Username); err != nil {
		a.logger.Warn("record last login failed", slog.String("username", user.Username), slog.Any("error", err))
	} else {
		user = touched
	}
	a.notify(notification.Login(user.Email, user.Username))

	return user, session, nil
}

// ResolveAccessToken returns the active user an access token was issued to.
// Every protected operation calls this first.
func (a *Authenticator) ResolveAccessToken(ctx context.Context, token string) (identity.User, error) {
	user, _, err := a.resolve(ctx, token, TokenTypeAccess)
	return user, err
}

// Inspect resolves an access token and reports how long it stays valid.
func (a *Authenticator) Inspect(ctx context.Context, token string) (identity.User, time.Duration, error) {
	user, claims, err := a.resolve(ctx, token, TokenTypeAccess)
	if err != nil {
		return identity.User{}, 0, err
	}
	return user, claims.ExpiresAt.Sub(a.codec.now()), nil
}

// RefreshSession exchanges a refresh token for a new access token. The
// refresh token itself is not rotated.
func (a *Authenticator) RefreshSession(ctx context.Context, refreshToken string) (AccessGrant, error) {
	user, _, err := a.resolve(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return AccessGrant{}, err
	}
	access, _, err := a.codec.Encode(user.Username, TokenTypeAccess, a.cfg.AccessTokenTTL)
	if err != nil {
		return AccessGrant{}, err
	}
	return AccessGrant{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int64(a.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

func (a *Authenticator) resolve(ctx context.Context, token string, want TokenType) (identity.User, Claims, error) {
	claims, err := a.codec.Decode(token)
	if err != nil {
		return identity.User{}, Claims{}, err
	}
	if claims.Type != want {
		return identity.User{}, Claims{}, autherr.ErrWrongTokenType
	}

	user, err := a.ids.Repository().FindByUsername(ctx, claims.Subject)
	if errors.Is(err, identity.ErrNotFound) {
		return identity.User{}, Claims{}, autherr.ErrUserNotFound
	}
	if err != nil {
		return identity.User{}, Claims{}, fmt.Errorf("lookup token subject: %w", err)
	}
	if !user.IsActive {
		return identity.User{}, Claims{}, autherr.ErrAccountInactive
	}
	return user, claims, nil
}

func (a *Authenticator) decoy(ctx context.Context) string {
	a.decoyOnce.Do(func() {
		hash, err := a.hasher.Hash(context.WithoutCancel(ctx), timingDecoyPassword)
		if err != nil {
			a.logger.Warn("build timing decoy hash", slog.Any("error", err))
			return
		}
		a.decoyHash = hash
	})
	return a.decoyHash
}

func (a *Authenticator) notify(message notification.Message) {
	if a.notifier == nil {
		return
	}
	a.notifier.Dispatch(message)
}
