package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-directory/internal/infrastructure/db/redis"
	"github.com/99minutos/user-directory/internal/pkg/metrics"
)

// Limiter decides whether one more request from client fits its quota.
type Limiter interface {
	Allow(ctx context.Context, client string) (redis.Decision, error)
}

// RateLimit throttles requests per client IP. Health and metrics endpoints are
// never limited. When the limiter itself fails the request is let through.
func RateLimit(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if strings.HasPrefix(path, "/health") || path == "/metrics" {
				return next(c)
			}

			ctx := c.Request().Context()
			d, err := limiter.Allow(ctx, c.RealIP())
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("rate limiter unavailable")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			resetSeconds := strconv.Itoa(int(math.Ceil(d.ResetIn.Seconds())))
			h.Set("X-RateLimit-Reset", resetSeconds)

			if !d.Allowed {
				metrics.RateLimitedTotal.Inc()
				h.Set(echo.HeaderRetryAfter, resetSeconds)
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
