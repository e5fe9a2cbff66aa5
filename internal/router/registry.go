package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-eventhub/pkg/helpers"
	"github.com/oksasatya/go-eventhub/pkg/response"
)

// APIPrefix is where every module is mounted.
const APIPrefix = "/api"

// Module mounts one feature's routes on the API group.
type Module interface {
	Name() string
	Register(rg *gin.RouterGroup)
}

// Registry collects modules and shared middleware, then mounts them once.
type Registry struct {
	Engine *gin.Engine
	API    *gin.RouterGroup

	logger  *logrus.Logger
	shared  []gin.HandlerFunc
	modules []Module
	names   map[string]bool
}

func NewRegistry(engine *gin.Engine, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &Registry{
		Engine: engine,
		API:    engine.Group(APIPrefix),
		logger: logger,
		names:  map[string]bool{},
	}
}

// Use adds middleware that runs for every module route.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.shared = append(r.shared, mw...)
}

// Add queues a module. A second module with the same name is ignored.
func (r *Registry) Add(mod Module) {
	if r.names[mod.Name()] {
		r.logger.WithField("module", mod.Name()).Warn("module already registered")
		return
	}
	r.names[mod.Name()] = true
	r.modules = append(r.modules, mod)
}

// Modules lists the queued module names in registration order.
func (r *Registry) Modules() []string {
	out := make([]string, len(r.modules))
	for i, m := range r.modules {
		out[i] = m.Name()
	}
	return out
}

// RegisterAll mounts the shared middleware and every module, and answers
// unknown routes with the error envelope.
func (r *Registry) RegisterAll() {
	if len(r.shared) > 0 {
		r.API.Use(r.shared...)
	}
	for _, m := range r.modules {
		before := len(r.Engine.Routes())
		m.Register(r.API)
		r.logger.WithFields(logrus.Fields{
			"module": m.Name(),
			"routes": len(r.Engine.Routes()) - before,
		}).Debug("module registered")
	}
	r.Engine.NoRoute(func(c *gin.Context) {
		response.Error[any](c, http.StatusNotFound, "route not found", nil)
	})
}
