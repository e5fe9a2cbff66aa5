package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/eventapi"
	"github.com/oksasatya/go-eventhub/internal/session"
)

func loadedList(t *testing.T, b *backend, user string, opts Options) *List {
	t.Helper()
	l := NewList(b.ClientFor(user), fakeSession{ID: user, Name: "User " + user}, opts)
	require.NoError(t, l.Load(context.Background()))
	t.Cleanup(l.Unmount)
	return l
}

func titles(events []entity.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Title
	}
	return out
}

func TestList_LoadNewestFirst(t *testing.T) {
	b := newBackend(t,
		sampleEvent("Old Jazz", entity.CategoryMusic, "u1", 3),
		sampleEvent("New Go", entity.CategoryTechnology, "u2", 1),
	)
	l := loadedList(t, b, "u1", Options{})

	assert.Equal(t, []string{"New Go", "Old Jazz"}, titles(l.Events()))
	assert.Empty(t, l.Err())
	assert.False(t, l.Loading())
}

func TestList_LoadFailureSetsRetryableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := NewList(eventapi.New(srv.URL), fakeSession{}, Options{})
	defer l.Unmount()

	err := l.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgLoadFailed, l.Err())
	assert.Error(t, l.Retry(context.Background()))
}

func TestList_FilterIsCommutative(t *testing.T) {
	b := newBackend(t,
		sampleEvent("Go Conference", entity.CategoryTechnology, "u1", 1),
		sampleEvent("Jazz Night", entity.CategoryMusic, "u1", 2),
		sampleEvent("Go Jazz Fusion", entity.CategoryMusic, "u2", 3),
		sampleEvent("Startup Go", entity.CategoryBusiness, "u2", 4),
	)
	l := loadedList(t, b, "u1", Options{})
	all := l.Events()

	filter := func(events []entity.Event, keep func(entity.Event) bool) []entity.Event {
		out := []entity.Event{}
		for _, e := range events {
			if keep(e) {
				out = append(out, e)
			}
		}
		return out
	}
	bySearch := func(e entity.Event) bool { return entity.MatchesSearch(e, "go") }
	byCategory := func(e entity.Event) bool { return entity.MatchesCategory(e, "Music") }

	searchThenCategory := filter(filter(all, bySearch), byCategory)
	categoryThenSearch := filter(filter(all, byCategory), bySearch)
	assert.Equal(t, titles(searchThenCategory), titles(categoryThenSearch))

	l.SetSearch("GO")
	l.SetCategory("Music")
	assert.Equal(t, []string{"Go Jazz Fusion"}, titles(l.Filtered()))
	assert.Equal(t, titles(searchThenCategory), titles(l.Filtered()))

	l.SetCategory("")
	l.SetSearch("short")
	assert.Len(t, l.Filtered(), 4, "short description is searched too")
}

func TestList_CategoriesFirstSeen(t *testing.T) {
	b := newBackend(t,
		sampleEvent("A", entity.CategoryMusic, "u1", 1),
		sampleEvent("B", entity.CategoryTechnology, "u1", 2),
		sampleEvent("C", entity.CategoryMusic, "u1", 3),
	)
	l := loadedList(t, b, "u1", Options{})
	assert.Equal(t, []string{"all", "Music", "Technology"}, l.Categories())
}

func TestList_OwnedOnly(t *testing.T) {
	b := newBackend(t,
		sampleEvent("Mine", entity.CategoryMusic, "u1", 1),
		sampleEvent("Theirs", entity.CategoryMusic, "u2", 2),
	)
	l := loadedList(t, b, "u1", Options{OwnedOnly: true})
	assert.Equal(t, []string{"Mine"}, titles(l.Events()))

	rec := newRecorder()
	anon := NewList(b.ClientFor(""), fakeSession{}, Options{OwnedOnly: true, Navigator: rec})
	defer anon.Unmount()
	assert.ErrorIs(t, anon.Load(context.Background()), session.ErrUnauthenticated)
	assert.Equal(t, []string{RouteLogin}, rec.Paths())
}

func TestList_DeleteByNonOrganizerNeverCallsBackend(t *testing.T) {
	theirs := sampleEvent("Theirs", entity.CategoryMusic, "u2", 1)
	b := newBackend(t, theirs)
	rec := newRecorder()
	l := loadedList(t, b, "u1", rec.options())

	err := l.Delete(context.Background(), theirs.ID)
	assert.ErrorIs(t, err, ErrNotOrganizer)
	assert.Equal(t, []string{MsgDeleteNotAuthorized}, rec.Messages())
	assert.Zero(t, b.Calls(http.MethodDelete))
	assert.Empty(t, rec.prompts)
	assert.Len(t, l.Events(), 1)
}

func TestList_DeleteByOrganizer(t *testing.T) {
	mine := sampleEvent("Mine", entity.CategoryMusic, "u1", 1)
	b := newBackend(t, mine)
	rec := newRecorder()
	l := loadedList(t, b, "u1", rec.options())

	require.NoError(t, l.Delete(context.Background(), mine.ID))
	assert.Empty(t, l.Events())
	assert.Equal(t, []string{MsgDeleted}, rec.Messages())
	assert.Equal(t, []string{`Are you sure you want to delete "Mine"? This action cannot be undone.`}, rec.prompts)
	assert.Equal(t, 0, b.Repo.Len())
	assert.False(t, l.Deleting(mine.ID))
}

func TestList_DeleteDeclinedConfirmation(t *testing.T) {
	mine := sampleEvent("Mine", entity.CategoryMusic, "u1", 1)
	b := newBackend(t, mine)
	rec := newRecorder()
	rec.confirm = false
	l := loadedList(t, b, "u1", rec.options())

	require.NoError(t, l.Delete(context.Background(), mine.ID))
	assert.Zero(t, b.Calls(http.MethodDelete))
	assert.Len(t, l.Events(), 1)
}

func TestList_DeleteMissingOnServerRefetches(t *testing.T) {
	mine := sampleEvent("Mine", entity.CategoryMusic, "u1", 1)
	other := sampleEvent("Other", entity.CategoryMusic, "u1", 2)
	b := newBackend(t, mine, other)
	rec := newRecorder()
	l := loadedList(t, b, "u1", rec.options())
	require.Equal(t, 1, b.Calls(http.MethodGet))

	// someone else removed it after our load
	require.NoError(t, b.Repo.Delete(context.Background(), mine.ID))

	err := l.Delete(context.Background(), mine.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{MsgDeleteGone}, rec.Messages())
	assert.Equal(t, 2, b.Calls(http.MethodGet))
	assert.Equal(t, []string{"Other"}, titles(l.Events()))
	assert.Empty(t, l.Err())
}

func TestList_DeleteForbiddenByServer(t *testing.T) {
	mine := sampleEvent("Mine", entity.CategoryMusic, "u1", 1)
	b := newBackend(t, mine)
	b.Override(http.MethodDelete, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"forbidden"}`))
	})
	rec := newRecorder()
	l := loadedList(t, b, "u1", rec.options())

	err := l.Delete(context.Background(), mine.ID)
	require.ErrorIs(t, err, eventapi.ErrForbidden)
	assert.Equal(t, []string{MsgDeleteForbidden}, rec.Messages())
	assert.Equal(t, []string{"Mine"}, titles(l.Events()))
	assert.Equal(t, 1, b.Repo.Len())
	assert.False(t, l.Deleting(mine.ID))
}

func TestList_DeleteNetworkFailure(t *testing.T) {
	mine := sampleEvent("Mine", entity.CategoryMusic, "u1", 1)
	b := newBackend(t, mine)
	rec := newRecorder()
	l := loadedList(t, b, "u1", rec.options())
	b.Close()

	err := l.Delete(context.Background(), mine.ID)
	require.ErrorIs(t, err, eventapi.ErrNetwork)
	assert.Equal(t, []string{MsgDeleteNetwork}, rec.Messages())
	assert.Equal(t, []string{"Mine"}, titles(l.Events()))
	assert.False(t, l.Deleting(mine.ID))
}

func TestList_DeleteUnknownID(t *testing.T) {
	b := newBackend(t)
	rec := newRecorder()
	l := loadedList(t, b, "u1", rec.options())

	assert.ErrorIs(t, l.Delete(context.Background(), "nope"), ErrEventNotFound)
	assert.Equal(t, []string{MsgEventNotFound}, rec.Messages())
}

func TestList_ImageState(t *testing.T) {
	e := sampleEvent("Pic", entity.CategoryArts, "u1", 1)
	e.ImageURL = "https://example.com/p.png"
	b := newBackend(t, e)
	l := loadedList(t, b, "u1", Options{})

	assert.Equal(t, ImageState{}, l.Image(e.ID))
	assert.Equal(t, e.ImageURL, l.DisplayImage(e.ID))

	l.ImageLoaded(e.ID)
	assert.Equal(t, ImageState{Loaded: true}, l.Image(e.ID))
	assert.Equal(t, e.ImageURL, l.DisplayImage(e.ID))

	l.ImageFailed(e.ID)
	assert.Equal(t, ImageState{Loaded: true, Failed: true}, l.Image(e.ID))
	assert.Equal(t, entity.DefaultEventImage, l.DisplayImage(e.ID))
}

// blockingAPI holds List until the request context ends.
type blockingAPI struct {
	EventAPI
	started chan struct{}
}

func (b blockingAPI) List(ctx context.Context) ([]entity.Event, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestList_UnmountDropsLateResults(t *testing.T) {
	api := blockingAPI{started: make(chan struct{})}
	l := NewList(api, fakeSession{ID: "u1"}, Options{})

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background()) }()
	<-api.started
	l.Unmount()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("load did not return after unmount")
	}
	assert.Empty(t, l.Err())
	assert.False(t, l.Loading())
	assert.True(t, errors.Is(l.life.Err(), context.Canceled))
}
