package middleware

import (
	"context"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
)

// Timeout caps the request context so slow queries surface as Timeout errors
// instead of hanging the connection.
func Timeout(d time.Duration) drift.HandlerFunc {
	return func(c *drift.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
