package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-eventhub/internal/interface/http"
	"github.com/oksasatya/go-eventhub/internal/interface/middleware"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
)

// AuthModule wires account routes under /auth.
// Public: register, login, google, refresh. Protected: session, logout.
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := redisOrNil()

	// Public with rate limiting
	registerLimiter := middleware.RateLimit(rdb, middleware.Limit{Name: "register", Max: 10, Window: time.Minute, Key: middleware.KeyByRouteAndIP()})
	loginLimiter := middleware.RateLimit(rdb, middleware.Limit{Name: "login", Max: 10, Window: time.Minute, Key: middleware.KeyByIP()})
	refreshLimiter := middleware.RateLimit(rdb, middleware.Limit{Name: "refresh", Max: 60, Window: time.Minute, Key: middleware.KeyByIP()})
	// the trusted front-end usually calls from a private network
	upsertLimiter := middleware.RateLimit(rdb, middleware.Limit{Name: "oauth-upsert", Max: 60, Window: time.Minute, Key: middleware.KeyByRouteAndIP(), Allow: middleware.AllowPrivateIP()})

	g := rg.Group("/auth")
	g.POST("/register", registerLimiter, m.Handler.Register)
	g.POST("/login", loginLimiter, m.Handler.Login)
	g.POST("/google", upsertLimiter, m.Handler.Google)
	g.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	// Protected
	auth := g.Group("")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(middleware.RateLimit(rdb, middleware.Limit{Name: "account", Max: 120, Window: time.Minute, Key: middleware.KeyByUser()}))
	{
		auth.GET("/session", m.Handler.Session)
		auth.POST("/logout", m.Handler.Logout)
	}
}
