package router

import (
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-eventhub/internal/application"
	"github.com/oksasatya/go-eventhub/internal/container"
	repo "github.com/oksasatya/go-eventhub/internal/domain/repository"
	"github.com/oksasatya/go-eventhub/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-eventhub/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/go-eventhub/internal/interface/http"
	"github.com/oksasatya/go-eventhub/internal/router/modules"
)

type EventModuleDeps struct {
	Repo    repo.EventRepository
	Service *application.EventService
	Handler *handlers.EventHandler
}

type AuthModuleDeps struct {
	Repo    repo.UserRepository
	Service *application.AuthService
	Handler *handlers.AuthHandler
}

func redisClient() redis.Cmdable {
	if c := container.GetRedis(); c != nil {
		return c
	}
	return nil
}

// jobPublisher returns the queue publisher, or nil when none was set up.
// MAIL_SEND_ENABLED only decides whether the worker mails or logs the jobs.
func jobPublisher() application.JobPublisher {
	if p := container.GetRabbitPub(); p != nil {
		return p
	}
	return nil
}

// buildRepos picks Postgres when a pool is configured, memory otherwise.
func buildRepos() (repo.EventRepository, repo.UserRepository) {
	if pool := container.GetPGPool(); pool != nil {
		return pginfra.NewEventRepository(pool), pginfra.NewUserRepository(pool)
	}
	container.GetLogger().Warn("no postgres pool configured; using in-memory repositories")
	return memory.NewEventRepository(), memory.NewUserRepository()
}

func buildEventDeps(r repo.EventRepository) EventModuleDeps {
	cfg := container.GetConfig()
	service := application.NewEventService(
		r,
		redisClient(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESEventsIndex,
		jobPublisher(),
		cfg.EventCacheTTL,
	)
	service.AppName = cfg.AppName
	service.AppURL = cfg.AppURL
	if container.GetES() == nil {
		service.ESIndex = ""
	}

	return EventModuleDeps{
		Repo:    r,
		Service: service,
		Handler: handlers.NewEventHandler(service, container.GetLogger()),
	}
}

func buildAuthDeps(r repo.UserRepository) AuthModuleDeps {
	cfg := container.GetConfig()
	service := application.NewAuthService(r, container.GetJWT(), redisClient(), container.GetLogger(), cfg.SessionTTL)
	handler := handlers.NewAuthHandler(service, container.GetLogger(), container.GetCookies(), cfg.GoogleUpsertSecret)

	return AuthModuleDeps{
		Repo:    r,
		Service: service,
		Handler: handler,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	eventRepo, userRepo := buildRepos()

	authDeps := buildAuthDeps(userRepo)
	eventDeps := buildEventDeps(eventRepo)

	r.Add(modules.NewAuthModule(authDeps.Handler, container.GetJWT()))
	r.Add(modules.NewEventModule(eventDeps.Handler, container.GetJWT()))
	r.Add(modules.NewDebugModule(cfg.DebugMetricsEnabled, cfg.MetricsEnabled))
}
