package middleware

import (
	"net/http"
	"time"

	"speed-api/helper"
	"speed-api/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

type RequestMiddleware struct {
	logger  *zap.Logger
	http    *helper.HTTPHelper
	metrics *metrics.Collector
}

func NewRequestMiddleware(logger *zap.Logger, httpHelper *helper.HTTPHelper, collector *metrics.Collector) *RequestMiddleware {
	return &RequestMiddleware{logger: logger, http: httpHelper, metrics: collector}
}

// ProcessRequest tags the request with an id, logs it and records its latency.
func (rm *RequestMiddleware) ProcessRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		rm.metrics.IncrementCounter("http_requests", map[string]string{
			"method": c.Request.Method,
			"route":  route,
			"class":  statusClass(status),
		})
		rm.metrics.ObserveLatency(c.Request.Method+" "+route, duration)

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.Int("size", c.Writer.Size()),
			zap.String("client_ip", c.ClientIP()),
		}
		if status >= http.StatusInternalServerError {
			rm.logger.Error("Request completed", fields...)
		} else {
			rm.logger.Info("Request completed", fields...)
		}
	}
}

func (rm *RequestMiddleware) RecoverPanic() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				rm.logger.Error("Panic recovered",
					zap.String("request_id", c.GetString("request_id")),
					zap.Any("error", err),
					zap.Stack("stack"))
				rm.metrics.IncrementCounter("panics", nil)
				rm.http.SendError(c, "internal server error", rm.http.EmptyJsonMap(), http.StatusInternalServerError, "internalError")
				c.Abort()
			}
		}()
		c.Next()
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
