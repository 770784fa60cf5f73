package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	appErrors "github.com/kodkids/site-api/pkg/errors"
	"github.com/kodkids/site-api/pkg/response"
)

// RateLimit allows at most limit requests per client IP within window for the wrapped routes.
// Counters live in process memory. A non-positive limit disables the check.
func RateLimit(scope string, limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	counters := gocache.New(window, 2*window)
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		count := 1
		if err := counters.Add(key, 1, window); err != nil {
			n, incErr := counters.IncrementInt(key, 1)
			if incErr != nil {
				// Expired between Add and IncrementInt.
				counters.Set(key, 1, window)
				n = 1
			}
			count = n
		}
		if count > limit {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
