// Package middleware holds the HTTP middleware shared by every route.
package middleware

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
)

// Logger logs every request once it has been served.
func Logger(log zerolog.Logger) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()

		ev := log.Info()
		if status := c.Writer.Status(); status >= 500 {
			ev = log.Error()
		} else if status >= 400 {
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request served")
	}
}
