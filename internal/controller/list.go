package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/eventapi"
	"github.com/oksasatya/go-eventhub/internal/session"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
)

// Options configure a List. Nil collaborators fall back to no-ops
// (and to approving every confirmation).
type Options struct {
	// OwnedOnly keeps only the signed-in user's events (the manage view).
	OwnedOnly bool
	Notifier  Notifier
	Confirmer Confirmer
	Navigator Navigator
	Logger    *logrus.Logger
}

func (o Options) withDefaults() Options {
	if o.Notifier == nil {
		o.Notifier = nopNotifier{}
	}
	if o.Confirmer == nil {
		o.Confirmer = alwaysConfirm{}
	}
	if o.Navigator == nil {
		o.Navigator = nopNavigator{}
	}
	if o.Logger == nil {
		o.Logger = helpers.NopLogger()
	}
	return o
}

// ImageState tracks whether an event's image rendered.
type ImageState struct {
	Loaded bool
	Failed bool
}

// List holds the event collection behind the browse and manage views.
// It is safe for concurrent use.
type List struct {
	api  EventAPI
	sess SessionSource
	opts Options

	life   context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	events    []entity.Event
	loading   bool
	errMsg    string
	term      string
	category  string
	deleting  map[string]bool
	images    map[string]ImageState
	loadSeq   uint64
	unmounted bool
}

func NewList(api EventAPI, sess SessionSource, opts Options) *List {
	life, cancel := context.WithCancel(context.Background())
	return &List{
		api:      api,
		sess:     sess,
		opts:     opts.withDefaults(),
		life:     life,
		cancel:   cancel,
		category: entity.CategoryAll,
		deleting: map[string]bool{},
		images:   map[string]ImageState{},
	}
}

// scope derives a request context that is also cancelled by Unmount.
func (l *List) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(l.life, cancel)
	return c, func() {
		stop()
		cancel()
	}
}

// Load fetches the collection and replaces it on success.
// On failure the previous collection stays and Err reports the load error.
func (l *List) Load(ctx context.Context) error {
	var owner string
	if l.opts.OwnedOnly {
		u, err := l.sess.User()
		if err != nil {
			l.opts.Navigator.Navigate(RouteLogin)
			return session.ErrUnauthenticated
		}
		owner = u.ID
	}

	l.mu.Lock()
	if l.unmounted {
		l.mu.Unlock()
		return nil
	}
	l.loadSeq++
	seq := l.loadSeq
	l.loading = true
	l.mu.Unlock()

	rctx, done := l.scope(ctx)
	events, err := l.api.List(rctx)
	done()

	l.mu.Lock()
	defer l.mu.Unlock()
	// a newer load or an unmount supersedes this result
	if l.unmounted || seq != l.loadSeq {
		return nil
	}
	l.loading = false
	if err != nil {
		l.errMsg = MsgLoadFailed
		l.opts.Logger.WithError(err).Warn("load events failed")
		return err
	}
	if owner != "" {
		mine := events[:0]
		for _, e := range events {
			if e.ManagedBy(owner) {
				mine = append(mine, e)
			}
		}
		events = mine
	}
	l.events = events
	l.errMsg = ""
	return nil
}

// Retry reloads after a failed Load.
func (l *List) Retry(ctx context.Context) error {
	return l.Load(ctx)
}

func (l *List) Events() []entity.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]entity.Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *List) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Err returns the load error message, or "" when the last load succeeded.
func (l *List) Err() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errMsg
}

func (l *List) SetSearch(term string) {
	l.mu.Lock()
	l.term = term
	l.mu.Unlock()
}

// SetCategory selects a category filter; "" resets to all.
func (l *List) SetCategory(category string) {
	if category == "" {
		category = entity.CategoryAll
	}
	l.mu.Lock()
	l.category = category
	l.mu.Unlock()
}

// Filtered returns the events matching both the search term and the category filter.
func (l *List) Filtered() []entity.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []entity.Event{}
	for _, e := range l.events {
		if entity.MatchesSearch(e, l.term) && entity.MatchesCategory(e, l.category) {
			out = append(out, e)
		}
	}
	return out
}

// Categories lists "all" followed by each category present in the collection, first seen first.
func (l *List) Categories() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []string{entity.CategoryAll}
	seen := map[entity.Category]bool{}
	for _, e := range l.events {
		if e.Category == "" || seen[e.Category] {
			continue
		}
		seen[e.Category] = true
		out = append(out, string(e.Category))
	}
	return out
}

// Deleting reports whether a delete for id is in flight.
func (l *List) Deleting(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleting[id]
}

// Delete removes an event the signed-in user organizes. Ownership is checked
// before any request; a 404 from the backend triggers a full reload and is not an error.
func (l *List) Delete(ctx context.Context, id string) error {
	u, err := l.sess.User()
	if err != nil {
		l.opts.Navigator.Navigate(RouteLogin)
		return session.ErrUnauthenticated
	}

	l.mu.Lock()
	e, ok := l.find(id)
	if !ok {
		l.mu.Unlock()
		l.opts.Notifier.Notify(NoticeError, MsgEventNotFound)
		return ErrEventNotFound
	}
	if !e.ManagedBy(u.ID) {
		l.mu.Unlock()
		l.opts.Notifier.Notify(NoticeError, MsgDeleteNotAuthorized)
		return ErrNotOrganizer
	}
	if l.deleting[id] {
		l.mu.Unlock()
		return ErrBusy
	}
	l.mu.Unlock()

	prompt := fmt.Sprintf("Are you sure you want to delete %q? This action cannot be undone.", e.Title)
	if !l.opts.Confirmer.Confirm(prompt) {
		return nil
	}

	l.mu.Lock()
	l.deleting[id] = true
	l.mu.Unlock()

	rctx, done := l.scope(ctx)
	err = l.api.Delete(rctx, id)
	done()

	l.mu.Lock()
	delete(l.deleting, id)
	if l.unmounted {
		l.mu.Unlock()
		return nil
	}
	if err == nil {
		l.remove(id)
		l.mu.Unlock()
		l.opts.Notifier.Notify(NoticeSuccess, MsgDeleted)
		return nil
	}
	l.mu.Unlock()

	fields := logrus.Fields{"event_id": id, "status": eventapi.StatusOf(err)}
	switch {
	case errors.Is(err, eventapi.ErrNotFound):
		l.opts.Notifier.Notify(NoticeError, MsgDeleteGone)
		if lerr := l.Load(ctx); lerr != nil {
			l.opts.Logger.WithError(lerr).WithFields(fields).Warn("reload after missing delete failed")
		}
		return nil
	case errors.Is(err, eventapi.ErrForbidden):
		l.opts.Notifier.Notify(NoticeError, MsgDeleteForbidden)
	case errors.Is(err, eventapi.ErrNetwork):
		l.opts.Notifier.Notify(NoticeError, MsgDeleteNetwork)
	default:
		msg := MsgDeleteFailed
		var apiErr *eventapi.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		l.opts.Notifier.Notify(NoticeError, "Error: "+msg)
	}
	l.opts.Logger.WithError(err).WithFields(fields).Warn("delete event failed")
	return err
}

// Edit opens an editor for one of the signed-in user's events.
func (l *List) Edit(id string) (*Editor, error) {
	l.mu.Lock()
	e, ok := l.find(id)
	l.mu.Unlock()
	if !ok {
		l.opts.Notifier.Notify(NoticeError, MsgEventNotFound)
		return nil, ErrEventNotFound
	}
	return NewEditor(l.api, l.sess, EditorOptions{
		Event:     &e,
		List:      l,
		Notifier:  l.opts.Notifier,
		Navigator: l.opts.Navigator,
		Logger:    l.opts.Logger,
	})
}

// Replace swaps the stored copy of e in place. Unknown ids are ignored.
func (l *List) Replace(e entity.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.unmounted {
		return
	}
	for i := range l.events {
		if l.events[i].ID == e.ID {
			l.events[i] = e
			return
		}
	}
}

// Unmount cancels outstanding requests. Results that arrive afterwards are dropped.
func (l *List) Unmount() {
	l.mu.Lock()
	l.unmounted = true
	l.loading = false
	l.mu.Unlock()
	l.cancel()
}

func (l *List) ImageLoaded(id string) {
	l.mu.Lock()
	l.images[id] = ImageState{Loaded: true}
	l.mu.Unlock()
}

func (l *List) ImageFailed(id string) {
	l.mu.Lock()
	l.images[id] = ImageState{Loaded: true, Failed: true}
	l.mu.Unlock()
}

func (l *List) Image(id string) ImageState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.images[id]
}

// DisplayImage is the image to render for id, falling back to the default after a failed load.
func (l *List) DisplayImage(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.images[id].Failed {
		return entity.DefaultEventImage
	}
	if e, ok := l.find(id); ok {
		return e.DisplayImage()
	}
	return entity.DefaultEventImage
}

func (l *List) find(id string) (entity.Event, bool) {
	for _, e := range l.events {
		if e.ID == id {
			return e, true
		}
	}
	return entity.Event{}, false
}

func (l *List) remove(id string) {
	out := l.events[:0]
	for _, e := range l.events {
		if e.ID != id {
			out = append(out, e)
		}
	}
	l.events = out
}
