package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// Limit is a fixed-window request budget.
type Limit struct {
	Name    string
	Max     int
	Window  time.Duration
	Policy  FailPolicy
	// Message is the 429 error text. Empty uses defaultLimitMessage.
	Message string
}

const defaultLimitMessage = "Too many requests, please try again later."

// rateLimitBypassed reports whether APP_ENV disables limiting so local and test
// workflows are not throttled.
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// CheckRateLimit increments the window counter for (resource, id).
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (Decision, error) {
	if rateLimitBypassed() {
		return Decision{Allowed: true, Remaining: limit, ResetIn: window}, nil
	}
	if rdb == nil {
		return Decision{}, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return Decision{}, err
		}
	}
	resetIn, err := rdb.PTTL(ctx, key).Result()
	if err != nil {
		return Decision{}, err
	}

	remaining := limit - int(cnt)
	if remaining < 0 {
		remaining = 0
	}
	if resetIn <= 0 {
		resetIn = window
	}
	return Decision{Allowed: cnt <= int64(limit), Remaining: remaining, ResetIn: resetIn}, nil
}

// RateLimit returns a Fiber middleware enforcing l, keyed by client IP.
func RateLimit(rdb *redis.Client, l Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resource := l.Name
		if resource == "" {
			resource = c.Path()
		}

		d, err := CheckRateLimit(c.UserContext(), rdb, resource, "ip:"+c.IP(), l.Max, l.Window)
		if err != nil {
			if l.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limiter unavailable, failing closed",
					slog.String("resource", resource),
					slog.String("path", c.Path()),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "Service temporarily unavailable",
				})
			}
			return c.Next()
		}

		c.Set("RateLimit-Limit", strconv.Itoa(l.Max))
		c.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Set("RateLimit-Reset", strconv.Itoa(int(d.ResetIn.Seconds())))

		if !d.Allowed {
			RateLimitRejections.WithLabelValues(resource).Inc()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(d.ResetIn.Seconds())))
			msg := l.Message
			if msg == "" {
				msg = defaultLimitMessage
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": msg,
			})
		}
		return c.Next()
	}
}
