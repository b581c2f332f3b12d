package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

type requestObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// unmatchedRoute labels requests that hit no registered route so arbitrary
// URLs cannot grow the label set.
const unmatchedRoute = "unmatched"

// Metrics records duration and status of every request except the scrape itself.
func Metrics(observer requestObserver, scrapePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if observer == nil || c.Request.URL.Path == scrapePath {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		observer.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
