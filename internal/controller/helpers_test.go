package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oksasatya/go-eventhub/internal/application"
	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/eventapi"
	"github.com/oksasatya/go-eventhub/internal/infrastructure/memory"
	handlers "github.com/oksasatya/go-eventhub/internal/interface/http"
	"github.com/oksasatya/go-eventhub/internal/interface/middleware"
	"github.com/oksasatya/go-eventhub/internal/session"
	"github.com/oksasatya/go-eventhub/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init(entity.CategoryNames())
}

// backend runs the real event handlers over an in-memory repository.
// The bearer token is taken as the user id.
type backend struct {
	Repo *memory.EventRepository
	URL  string

	srv *httptest.Server

	mu       sync.Mutex
	calls    map[string]int
	override map[string]http.HandlerFunc
}

func newBackend(t *testing.T, seed ...entity.Event) *backend {
	t.Helper()
	b := &backend{
		Repo:     memory.NewEventRepository(seed...),
		calls:    map[string]int{},
		override: map[string]http.HandlerFunc{},
	}

	h := handlers.NewEventHandler(application.NewEventService(b.Repo, nil, nil, nil, "", nil, 0), nil)
	r := gin.New()
	g := r.Group("/api/events")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	authed := g.Group("", bearerAsUser)
	authed.POST("", h.Create)
	authed.PUT("/:id", h.Update)
	authed.DELETE("/:id", h.Delete)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		b.calls[req.Method]++
		h := b.override[req.Method]
		b.mu.Unlock()
		if h != nil {
			h(w, req)
			return
		}
		r.ServeHTTP(w, req)
	}))
	t.Cleanup(srv.Close)
	b.srv = srv
	b.URL = srv.URL
	return b
}

func bearerAsUser(c *gin.Context) {
	tok := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if tok == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Set(middleware.CtxUserIDKey, tok)
	c.Set(middleware.CtxUserNameKey, "User "+tok)
	c.Next()
}

func (b *backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// Override answers every request with the given method using h instead of the handlers.
func (b *backend) Override(method string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.override[method] = h
}

// Close shuts the server down so later requests fail at the transport.
func (b *backend) Close() { b.srv.Close() }

func (b *backend) ClientFor(userID string) *eventapi.Client {
	return eventapi.New(b.URL, eventapi.WithToken(userID))
}

type fakeSession struct {
	ID, Name string
}

func (s fakeSession) User() (entity.Identity, error) {
	if s.ID == "" {
		return entity.Identity{}, session.ErrUnauthenticated
	}
	return entity.Identity{ID: s.ID, Name: s.Name}, nil
}

type notice struct {
	Kind    NoticeKind
	Message string
}

type recorder struct {
	mu      sync.Mutex
	notices []notice
	paths   []string
	confirm bool
	prompts []string
}

func newRecorder() *recorder { return &recorder{confirm: true} }

func (r *recorder) Notify(kind NoticeKind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice{kind, msg})
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) Confirm(prompt string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	return r.confirm
}

func (r *recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.notices))
	for i, n := range r.notices {
		out[i] = n.Message
	}
	return out
}

func (r *recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) options() Options {
	return Options{Notifier: r, Confirmer: r, Navigator: r}
}

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleEvent(title string, cat entity.Category, organizer string, age int) entity.Event {
	return entity.Event{
		ID:               uuid.NewString(),
		Title:            title,
		ShortDescription: title + " short",
		FullDescription:  title + " full",
		Price:            decimal.NewFromInt(5),
		Date:             baseTime.AddDate(0, 1, 0),
		Category:         cat,
		Location:         "Jakarta",
		Organizer:        organizer,
		OrganizerName:    "User " + organizer,
		CreatedAt:        baseTime.Add(-time.Duration(age) * time.Hour),
	}
}
