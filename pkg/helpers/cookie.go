package helpers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// TokenCookies writes the access/refresh pair as HttpOnly cookies. Browser
// clients use the cookies; CLI clients read the token from the JSON body and
// send it back as a bearer header.
type TokenCookies struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func NewTokenCookies(domain string, secure bool) *TokenCookies {
	return &TokenCookies{Domain: domain, Secure: secure, SameSite: http.SameSiteLaxMode}
}

func (t *TokenCookies) Set(c *gin.Context, access string, accessExp time.Time, refresh string, refreshExp time.Time) {
	t.write(c, AccessCookie, access, secondsUntil(accessExp))
	// refresh is only ever needed by the refresh endpoint
	t.write(c, RefreshCookie, refresh, secondsUntil(refreshExp))
}

func (t *TokenCookies) Clear(c *gin.Context) {
	t.write(c, AccessCookie, "", -1)
	t.write(c, RefreshCookie, "", -1)
}

func (t *TokenCookies) write(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(t.SameSite)
	c.SetCookie(name, value, maxAge, "/", t.Domain, t.Secure, true)
}

// AccessTokenFrom prefers the access cookie and falls back to an Authorization: Bearer header.
func AccessTokenFrom(c *gin.Context) string {
	if token, err := c.Cookie(AccessCookie); err == nil && token != "" {
		return token
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RefreshTokenFrom returns the refresh cookie, or "" when absent.
func RefreshTokenFrom(c *gin.Context) string {
	token, err := c.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return token
}

func secondsUntil(exp time.Time) int {
	return max(int(time.Until(exp).Seconds()), 0)
}
