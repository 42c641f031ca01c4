package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger logs each console request. Requests that poke the world (anything
// but GET and HEAD) and failures log at Info or above; reads log at Debug so
// a polling console does not flood production logs.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("took", time.Since(start)),
			zap.String("trace_id", GetTraceID(c)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("target", id))
		}
		if ce := log.Check(requestLevel(c.Request.Method, status), "http"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func requestLevel(method string, status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	case method == http.MethodGet || method == http.MethodHead:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
