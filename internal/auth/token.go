package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quillpost/quillpost/internal/autherr"
	"github.com/quillpost/quillpost/internal/config"
)

// TokenType discriminates access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

func (t TokenType) valid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

// Claims are the fields carried inside a signed token.
type Claims struct {
	Subject   string
	Type      TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Type TokenType `json:"type"`
}

// Codec signs and verifies expiring JWTs with a single HMAC secret.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// CodecOption customizes a Codec.
type CodecOption func(*Codec)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a Codec from the token configuration.
func NewCodec(cfg config.TokenConfig, opts ...CodecOption) (*Codec, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("token secret key is required")
	}
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	c := &Codec{secret: []byte(cfg.SecretKey), method: method, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode issues a token for subject of the given type valid for ttl.
func (c *Codec) Encode(subject string, typ TokenType, ttl time.Duration) (string, Claims, error) {
	now := c.now().Truncate(time.Second)
	claims := Claims{
		Subject:   subject,
		Type:      typ,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	token := jwt.NewWithClaims(c.method, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
		Type: typ,
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Decode verifies the signature and expiry of token and returns its claims.
// Expired tokens fail with autherr.ErrTokenExpired; anything else that does
// not verify fails with autherr.ErrTokenInvalid.
func (c *Codec) Decode(token string) (Claims, error) {
	var parsed jwtClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, autherr.Wrap(autherr.ErrTokenExpired, err)
		}
		return Claims{}, autherr.Wrap(autherr.ErrTokenInvalid, err)
	}

	if parsed.Subject == "" {
		return Claims{}, autherr.Wrap(autherr.ErrTokenInvalid, errors.New("missing subject"))
	}
	if !parsed.Type.valid() {
		return Claims{}, autherr.Wrap(autherr.ErrTokenInvalid, fmt.Errorf("unknown token type %q", parsed.Type))
	}
	if parsed.IssuedAt == nil {
		return Claims{}, autherr.Wrap(autherr.ErrTokenInvalid, errors.New("missing issued at"))
	}

	return Claims{
		Subject:   parsed.Subject,
		Type:      parsed.Type,
		IssuedAt:  parsed.IssuedAt.Time,
		ExpiresAt: parsed.ExpiresAt.Time,
	}, nil
}
