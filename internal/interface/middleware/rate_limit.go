package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-eventhub/pkg/metrics"
	"github.com/oksasatya/go-eventhub/pkg/response"
)

// KeyFunc picks the bucket a request is counted in.
type KeyFunc func(c *gin.Context) string

// AllowFunc returns true for requests that bypass the limiter.
type AllowFunc func(*gin.Context) bool

// Limit is one fixed-window limiter. Name namespaces the Redis keys and labels the metric.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	Key    KeyFunc
	Allow  AllowFunc
}

// KeyByIP buckets by client IP.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "ip:" + ipFromCtx(c)
	}
}

// KeyByRouteAndIP buckets by matched route and client IP.
func KeyByRouteAndIP() KeyFunc {
	return func(c *gin.Context) string {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		return "route:" + route + ":ip:" + ipFromCtx(c)
	}
}

// KeyByUser buckets by the authenticated user, falling back to the IP for anonymous requests.
func KeyByUser() KeyFunc {
	return func(c *gin.Context) string {
		if uid := c.GetString(CtxUserIDKey); uid != "" {
			return "user:" + uid
		}
		return "anon:ip:" + ipFromCtx(c)
	}
}

// INCR, and PEXPIRE only when the key is new
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimit counts requests per bucket and answers 429 once l.Max is exceeded
// within l.Window. It sets the X-RateLimit-* headers, skips OPTIONS, and
// fails open when Redis errors.
func RateLimit(rdb redis.Cmdable, l Limit) gin.HandlerFunc {
	if rdb == nil || l.Max <= 0 || l.Window <= 0 || l.Key == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if l.Name == "" {
		l.Name = "default"
	}
	limit := strconv.Itoa(l.Max)

	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, http.MethodOptions) || (l.Allow != nil && l.Allow(c)) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "rl:" + l.Name + ":" + l.Key(c)

		count, err := incrExpireScript.Run(ctx, rdb, []string{key}, l.Window.Milliseconds()).Int()
		if err != nil {
			c.Next()
			return
		}

		resetSec := 0
		if ttl, _ := rdb.TTL(ctx, key).Result(); ttl > 0 {
			resetSec = int(ttl.Seconds())
		}
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(l.Max-count, 0)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > l.Max {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			metrics.TrackRateLimited(l.Name)
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
