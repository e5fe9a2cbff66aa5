package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/eventapi"
)

// authServer answers the auth endpoints; tokens other than "good" are rejected by /session.
func authServer(t *testing.T, logouts *int) *eventapi.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "Secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"user":{"id":"u1","name":"Ada","email":"ada@example.com"},"token":"good","expiresAt":"2099-01-01T00:00:00Z"}`))
	})
	mux.HandleFunc("GET /api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"user":{"id":"u1","name":"Ada L.","email":"ada@example.com"}}`))
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if logouts != nil {
			*logouts++
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return eventapi.New(srv.URL)
}

func TestFileStore_RoundTrip(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))

	s, err := fs.Load()
	require.NoError(t, err)
	assert.Nil(t, s)

	want := &Session{User: entity.Identity{ID: "u1", Name: "Ada"}, Token: "t", ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, fs.Save(want))

	got, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, want.User, got.User)
	assert.Equal(t, want.Token, got.Token)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	s, err = fs.Load()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestProvider_SignInAndOut(t *testing.T) {
	logouts := 0
	api := authServer(t, &logouts)
	store := NewMemoryStore()
	p := NewProvider(api, store, nil)
	assert.Equal(t, StatusLoading, p.Status())

	_, err := p.SignIn(context.Background(), "ada@example.com", "wrong")
	assert.ErrorIs(t, err, eventapi.ErrUnauthorized)
	_, err = p.User()
	assert.ErrorIs(t, err, ErrUnauthenticated)

	s, err := p.SignIn(context.Background(), "ada@example.com", "Secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, StatusAuthenticated, p.Status())
	assert.Equal(t, "good", api.Token())

	stored, _ := store.Load()
	require.NotNil(t, stored)
	assert.Equal(t, "good", stored.Token)

	require.NoError(t, p.SignOut(context.Background()))
	assert.Equal(t, 1, logouts)
	assert.Equal(t, StatusUnauthenticated, p.Status())
	assert.Empty(t, api.Token())
	stored, _ = store.Load()
	assert.Nil(t, stored)
}

func TestProvider_TokenSwapDuringRequests(t *testing.T) {
	api := authServer(t, nil)
	p := NewProvider(api, NewMemoryStore(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			// either token state is fine; only the header read must be safe
			_, _ = api.Me(ctx)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			_, _ = p.SignIn(ctx, "ada@example.com", "Secret1")
			_ = p.SignOut(ctx)
		}
	}()
	wg.Wait()

	assert.Equal(t, StatusUnauthenticated, p.Status())
	assert.Empty(t, api.Token())
}

func TestProvider_InitRestoresAndRefreshesIdentity(t *testing.T) {
	api := authServer(t, nil)
	store := NewMemoryStore()
	require.NoError(t, store.Save(&Session{User: entity.Identity{ID: "u1", Name: "Ada"}, Token: "good"}))

	p := NewProvider(api, store, nil)
	require.NoError(t, p.Init(context.Background()))

	u, err := p.User()
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", u.Name)
	assert.Equal(t, "good", api.Token())
}

func TestProvider_InitDropsRejectedSession(t *testing.T) {
	api := authServer(t, nil)
	store := NewMemoryStore()
	require.NoError(t, store.Save(&Session{User: entity.Identity{ID: "u1"}, Token: "stale"}))

	p := NewProvider(api, store, nil)
	require.NoError(t, p.Init(context.Background()))

	assert.Equal(t, StatusUnauthenticated, p.Status())
	stored, _ := store.Load()
	assert.Nil(t, stored)
}

func TestProvider_InitDropsExpiredSessionWithoutCalling(t *testing.T) {
	api := eventapi.New("http://127.0.0.1:0")
	store := NewMemoryStore()
	require.NoError(t, store.Save(&Session{Token: "good", ExpiresAt: time.Now().Add(-time.Minute)}))

	p := NewProvider(api, store, nil)
	require.NoError(t, p.Init(context.Background()))
	assert.Equal(t, StatusUnauthenticated, p.Status())
}

func TestProvider_InitKeepsSessionWhenOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store := NewMemoryStore()
	require.NoError(t, store.Save(&Session{User: entity.Identity{ID: "u1"}, Token: "good"}))

	p := NewProvider(eventapi.New(url), store, nil)
	require.NoError(t, p.Init(context.Background()))
	assert.Equal(t, StatusAuthenticated, p.Status())
}
