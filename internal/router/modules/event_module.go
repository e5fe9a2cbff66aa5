package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-eventhub/internal/interface/http"
	"github.com/oksasatya/go-eventhub/internal/interface/middleware"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
)

// EventModule wires the event resource under /events.
// Public: list, search, get. Protected: create, replace, delete.
type EventModule struct {
	Handler *handlers.EventHandler
	JWT     *helpers.JWTManager
}

func NewEventModule(h *handlers.EventHandler, jwt *helpers.JWTManager) *EventModule {
	return &EventModule{Handler: h, JWT: jwt}
}

func (m *EventModule) Name() string { return "events" }

func (m *EventModule) Register(rg *gin.RouterGroup) {
	rdb := redisOrNil()

	g := rg.Group("/events")
	g.Use(middleware.RateLimit(rdb, middleware.Limit{Name: "events-read", Max: 300, Window: time.Minute, Key: middleware.KeyByIP()}))
	g.GET("", m.Handler.List)
	g.GET("/search", m.Handler.Search)
	g.GET("/:id", m.Handler.Get)

	auth := g.Group("")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(middleware.RateLimit(rdb, middleware.Limit{Name: "events-write", Max: 60, Window: time.Minute, Key: middleware.KeyByUser()}))
	{
		auth.POST("", m.Handler.Create)
		auth.PUT("/:id", m.Handler.Update)
		auth.DELETE("/:id", m.Handler.Delete)
	}
}
