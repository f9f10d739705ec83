package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const ctxLogger = "logger"

// RequestLogger logs one line per request and stores a request-scoped logger
// in the context for handlers.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With().Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Logger()
		c.Set(ctxLogger, &reqLog)

		c.Next()

		status := c.Writer.Status()
		ev := reqLog.Info()
		switch {
		case status >= 500:
			ev = reqLog.Error()
		case status >= 400:
			ev = reqLog.Warn()
		}
		if id, ok := UserID(c); ok {
			ev = ev.Str("user_id", id.String())
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("size", c.Writer.Size()).
			Msg("request")
	}
}

// Logger returns the request-scoped logger, or a disabled one outside RequestLogger.
func Logger(c *gin.Context) *zerolog.Logger {
	return logFor(c)
}

func logFor(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(ctxLogger); ok {
		if l, ok := v.(*zerolog.Logger); ok && l != nil {
			return l
		}
	}
	nop := zerolog.Nop()
	return &nop
}
