package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	loginRateKeyPrefix = "rl:login:"
	loginRateWindow    = time.Minute
)

// loginCounter increments the attempt counter and starts the window on the
// first hit in one round trip. It returns {count, remaining window in ms}.
var loginCounter = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// LoginRateLimit limits credential exchanges per username, falling back to
// the client IP when the body carries none. Usernames are case-folded so
// "Alice" and "alice" share a budget. Without Redis, or when Redis errors,
// requests are let through.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Username string `json:"username" form:"username"`
		}
		_ = c.BodyParser(&req)
		subject := strings.ToLower(strings.TrimSpace(req.Username))
		if subject == "" {
			subject = "ip:" + c.IP()
		}

		res, err := loginCounter.Run(c.UserContext(), cache,
			[]string{loginRateKeyPrefix + subject}, loginRateWindow.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			return c.Next() // fail-open
		}
		if res[0] > int64(maxPerMin) {
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(retryAfterSeconds(res[1]), 10))
			return fiber.NewError(http.StatusTooManyRequests, "too many login attempts, try again later")
		}
		return c.Next()
	}
}

func retryAfterSeconds(ttlMillis int64) int64 {
	if ttlMillis <= 0 {
		return int64(loginRateWindow / time.Second)
	}
	return (ttlMillis + 999) / 1000
}
