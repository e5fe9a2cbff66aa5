package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxRealIPKey holds the client address resolved by RealIP.
const CtxRealIPKey = "real_ip"

// Proxy headers consulted by RealIP, most specific first.
var ipHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// RealIP stores the client address under CtxRealIPKey. The first proxy header
// holding a parseable IP wins (left-most entry for lists); otherwise gin's ClientIP is used.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxRealIPKey, resolveIP(c))
		c.Next()
	}
}

func resolveIP(c *gin.Context) string {
	for _, h := range ipHeaders {
		if ip := firstIP(c.GetHeader(h)); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}

func firstIP(header string) string {
	head, _, _ := strings.Cut(header, ",")
	if ip := net.ParseIP(strings.TrimSpace(head)); ip != nil {
		return ip.String()
	}
	return ""
}

// ipFromCtx returns the resolved client IP, or "unknown".
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString(CtxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// AllowPrivateIP lets loopback and private-network clients skip a limiter.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		ip := net.ParseIP(ipFromCtx(c))
		return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
	}
}
