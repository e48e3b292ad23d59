package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/truongnet3103/albion-GE/internal/metrics"

	"github.com/gin-gonic/gin"
)

const LicenseHeader = "X-License-Key"

type LicenseChecker interface {
	Check(ctx context.Context, key string) error
}

// LicenseGate blocks scan and commit unless the request carries an active
// license key. With required=false it lets everything through. A failed check
// is rendered by fail, which tells a missing key apart from a broken store;
// nil fail answers 403 for every error.
func LicenseGate(required bool, checker LicenseChecker, fail func(*gin.Context, error)) gin.HandlerFunc {
	if fail == nil {
		fail = func(c *gin.Context, err error) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		}
	}
	return func(c *gin.Context) {
		if !required {
			c.Next()
			return
		}
		if err := checker.Check(c.Request.Context(), c.GetHeader(LicenseHeader)); err != nil {
			fail(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestMetrics records count and latency per matched route.
func RequestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
