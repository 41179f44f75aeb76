package middleware

import (
	"net/http"
	"sync"
	"time"

	"speed-api/helper"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AttemptTracker counts failed attempts per client IP inside a sliding window.
type AttemptTracker struct {
	mu       sync.Mutex
	attempts map[string]*attemptInfo
	limit    int
	window   time.Duration
	now      func() time.Time
}

type attemptInfo struct {
	count int
	first time.Time
}

func NewAttemptTracker(limit int, window time.Duration) *AttemptTracker {
	return &AttemptTracker{
		attempts: make(map[string]*attemptInfo),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (t *AttemptTracker) RecordFailure(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.expire(now)

	info, ok := t.attempts[ip]
	if !ok {
		info = &attemptInfo{first: now}
		t.attempts[ip] = info
	}
	info.count++
}

func (t *AttemptTracker) Reset(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, ip)
}

func (t *AttemptTracker) Blocked(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expire(t.now())
	info, ok := t.attempts[ip]
	return ok && info.count >= t.limit
}

// expire drops windows that have elapsed. Callers hold mu.
func (t *AttemptTracker) expire(now time.Time) {
	for ip, info := range t.attempts {
		if now.Sub(info.first) >= t.window {
			delete(t.attempts, ip)
		}
	}
}

// LoginThrottle rejects login attempts from an IP after too many failures.
// A successful login clears the count.
func LoginThrottle(tracker *AttemptTracker, httpHelper *helper.HTTPHelper, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if tracker.Blocked(ip) {
			logger.Warn("Login throttled", zap.String("client_ip", ip))
			httpHelper.SendError(c, "too many failed login attempts, try again later",
				httpHelper.EmptyJsonMap(), http.StatusTooManyRequests, "tooManyRequests")
			c.Abort()
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusOK:
			tracker.Reset(ip)
		case http.StatusUnauthorized:
			tracker.RecordFailure(ip)
		}
	}
}
