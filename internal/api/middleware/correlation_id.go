package middleware

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderProcessTime   = "X-Process-Time"

	// CorrelationIDKey is the echo.Context key holding the request's id.
	CorrelationIDKey = "correlation_id"

	maxCorrelationIDLength = 128
)

// CorrelationID reuses the caller's X-Correlation-ID or generates one, and
// echoes it back together with X-Process-Time in milliseconds.
func CorrelationID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			id := c.Request().Header.Get(HeaderCorrelationID)
			if id == "" || len(id) > maxCorrelationIDLength {
				id = uuid.NewString()
			}
			c.Set(CorrelationIDKey, id)

			res := c.Response()
			res.Header().Set(HeaderCorrelationID, id)
			res.Before(func() {
				ms := float64(time.Since(start).Microseconds()) / 1000
				res.Header().Set(HeaderProcessTime, strconv.FormatFloat(ms, 'f', 3, 64))
			})

			return next(c)
		}
	}
}

// GetCorrelationID returns the id stored by CorrelationID, or "".
func GetCorrelationID(c echo.Context) string {
	id, _ := c.Get(CorrelationIDKey).(string)
	return id
}
