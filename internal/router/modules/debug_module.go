package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oksasatya/go-eventhub/internal/interface/middleware"
)

type DebugModule struct {
	Expvar     bool
	Prometheus bool
}

func NewDebugModule(expvarEnabled, prometheusEnabled bool) *DebugModule {
	return &DebugModule{Expvar: expvarEnabled, Prometheus: prometheusEnabled}
}

func (m *DebugModule) Name() string { return "debug" }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// Public metrics endpoints, rate-limited per IP; internal scrapers bypass the limit
	rl := middleware.RateLimit(redisOrNil(), middleware.Limit{Name: "debug", Max: 120, Window: time.Minute, Key: middleware.KeyByIP(), Allow: middleware.AllowPrivateIP()})
	if m.Expvar {
		rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	}
	if m.Prometheus {
		rg.GET("/metrics", rl, gin.WrapH(promhttp.Handler()))
	}
}
