package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/quillpost/quillpost/internal/autherr"
	"github.com/quillpost/quillpost/internal/config"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_760_000_000, 0)}
}

func testTokenConfig() config.TokenConfig {
	return config.TokenConfig{
		SecretKey:       "test-secret",
		Algorithm:       "HS256",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	}
}

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	codec, err := NewCodec(testTokenConfig(), WithClock(clock.Now))
	require.NoError(t, err)
	return codec
}

func TestCodecRoundTrip(t *testing.T) {
	clock := newTestClock()
	codec := newTestCodec(t, clock)

	token, issued, err := codec.Encode("alice", TokenTypeRefresh, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(token, ".")))

	clock.Advance(59 * time.Minute)
	claims, err := codec.Decode(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, TokenTypeRefresh, claims.Type)
	require.True(t, issued.IssuedAt.Equal(claims.IssuedAt))
	require.True(t, issued.ExpiresAt.Equal(claims.ExpiresAt))
}

func TestCodecExpiry(t *testing.T) {
	clock := newTestClock()
	codec := newTestCodec(t, clock)

	token, _, err := codec.Encode("alice", TokenTypeAccess, 15*time.Minute)
	require.NoError(t, err)

	clock.Advance(14*time.Minute + 59*time.Second)
	_, err = codec.Decode(token)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = codec.Decode(token)
	require.ErrorIs(t, err, autherr.ErrTokenExpired)
}

func TestCodecRejectsForeignSignature(t *testing.T) {
	clock := newTestClock()
	codec := newTestCodec(t, clock)

	other := testTokenConfig()
	other.SecretKey = "another-secret"
	forger, err := NewCodec(other, WithClock(clock.Now))
	require.NoError(t, err)

	token, _, err := forger.Encode("alice", TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	require.ErrorIs(t, err, autherr.ErrTokenInvalid)
}

func TestCodecRejectsTamperedPayload(t *testing.T) {
	clock := newTestClock()
	codec := newTestCodec(t, clock)

	token, _, err := codec.Encode("alice", TokenTypeAccess, time.Minute)
	require.NoError(t, err)
	forged, _, err := codec.Encode("mallory", TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[1] = strings.Split(forged, ".")[1]
	_, err = codec.Decode(strings.Join(parts, "."))
	require.ErrorIs(t, err, autherr.ErrTokenInvalid)
}

func TestCodecRejectsMalformedAndIncompleteTokens(t *testing.T) {
	clock := newTestClock()
	codec := newTestCodec(t, clock)
	secret := []byte(testTokenConfig().SecretKey)
	exp := jwt.NewNumericDate(clock.now.Add(time.Hour))
	iat := jwt.NewNumericDate(clock.now)

	sign := func(claims jwt.Claims, method jwt.SigningMethod) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
		require.NoError(t, err)
		return s
	}

	cases := map[string]string{
		"garbage":         "not.a.jwt",
		"empty":           "",
		"missing subject": sign(jwtClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp, IssuedAt: iat}, Type: TokenTypeAccess}, jwt.SigningMethodHS256),
		"missing type":    sign(jwtClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: exp, IssuedAt: iat}}, jwt.SigningMethodHS256),
		"unknown type":    sign(jwtClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: exp, IssuedAt: iat}, Type: "id"}, jwt.SigningMethodHS256),
		"missing expiry":  sign(jwtClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", IssuedAt: iat}, Type: TokenTypeAccess}, jwt.SigningMethodHS256),
		"missing iat":     sign(jwtClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: exp}, Type: TokenTypeAccess}, jwt.SigningMethodHS256),
		"other algorithm": sign(jwtClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: exp, IssuedAt: iat}, Type: TokenTypeAccess}, jwt.SigningMethodHS512),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(token)
			require.ErrorIs(t, err, autherr.ErrTokenInvalid)
		})
	}
}

func TestNewCodecRequiresHMAC(t *testing.T) {
	cfg := testTokenConfig()
	cfg.Algorithm = "RS256"
	_, err := NewCodec(cfg)
	require.Error(t, err)

	cfg = testTokenConfig()
	cfg.SecretKey = ""
	_, err = NewCodec(cfg)
	require.Error(t, err)
}
