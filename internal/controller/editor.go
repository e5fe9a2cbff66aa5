package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/eventapi"
	"github.com/oksasatya/go-eventhub/internal/eventform"
	"github.com/oksasatya/go-eventhub/internal/session"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
)

type State string

const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

type EditorOptions struct {
	// Event selects edit mode. Nil means create mode.
	Event *entity.Event
	// List receives the updated event in place after a successful edit.
	List      *List
	Notifier  Notifier
	Navigator Navigator
	Logger    *logrus.Logger
}

// Editor drives the create and edit forms.
type Editor struct {
	api       EventAPI
	sess      SessionSource
	list      *List
	original  *entity.Event
	notifier  Notifier
	navigator Navigator
	logger    *logrus.Logger

	mu     sync.Mutex
	draft  eventform.Draft
	errs   eventform.FieldErrors
	state  State
	closed bool
}

// NewEditor opens an editor. It requires a signed-in user; in edit mode the
// user must also organize the event. Both checks run before any request.
func NewEditor(api EventAPI, sess SessionSource, opts EditorOptions) (*Editor, error) {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Navigator == nil {
		opts.Navigator = nopNavigator{}
	}
	if opts.Logger == nil {
		opts.Logger = helpers.NopLogger()
	}

	u, err := sess.User()
	if err != nil {
		opts.Navigator.Navigate(RouteLogin)
		return nil, session.ErrUnauthenticated
	}

	ed := &Editor{
		api:       api,
		sess:      sess,
		list:      opts.List,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		logger:    opts.Logger,
		state:     StateEditing,
	}
	if opts.Event != nil {
		if !opts.Event.ManagedBy(u.ID) {
			opts.Notifier.Notify(NoticeError, MsgEditNotAuthorized)
			return nil, ErrNotOrganizer
		}
		orig := *opts.Event
		ed.original = &orig
		ed.draft = eventform.FromEvent(orig)
	}
	return ed, nil
}

// Editing reports whether the editor replaces an existing event.
func (ed *Editor) Editing() bool { return ed.original != nil }

func (ed *Editor) Draft() eventform.Draft {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.draft
}

func (ed *Editor) Errors() eventform.FieldErrors {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.errs
}

func (ed *Editor) State() State {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.state
}

func (ed *Editor) Closed() bool {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.closed
}

// Set updates one draft field and clears its error. Unknown fields report false.
func (ed *Editor) Set(field, value string) bool {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.closed || ed.state == StateSubmitting {
		return false
	}
	if !ed.draft.Set(field, value) {
		return false
	}
	ed.errs.Clear(field)
	return true
}

// Submit validates the draft and, when it is clean, creates or replaces the event.
// Field errors return ErrInvalidDraft without a request. A failed request keeps
// the draft and returns the editor to StateEditing.
func (ed *Editor) Submit(ctx context.Context) (*entity.Event, error) {
	ed.mu.Lock()
	if ed.closed {
		ed.mu.Unlock()
		return nil, ErrClosed
	}
	if ed.state == StateSubmitting {
		ed.mu.Unlock()
		return nil, ErrBusy
	}
	ed.state = StateValidating
	ed.errs = eventform.Validate(ed.draft)
	if !ed.errs.Empty() {
		ed.state = StateEditing
		ed.mu.Unlock()
		return nil, ErrInvalidDraft
	}
	ed.state = StateSubmitting
	draft := ed.draft
	ed.mu.Unlock()

	u, err := ed.sess.User()
	if err != nil {
		ed.setState(StateEditing)
		ed.navigator.Navigate(RouteLogin)
		return nil, session.ErrUnauthenticated
	}

	if ed.list != nil {
		var done context.CancelFunc
		ctx, done = ed.list.scope(ctx)
		defer done()
	}

	var (
		saved *entity.Event
		rec   eventapi.Record
	)
	if ed.original == nil {
		saved, err = ed.api.Create(ctx, draft, u.ID, u.Name)
	} else {
		// organizer fields always come from the stored event
		rec, err = eventapi.RecordFromDraft(draft, ed.original.Organizer, ed.original.OrganizerName)
		if err == nil {
			saved, err = ed.api.Update(ctx, ed.original.ID, rec)
		}
	}
	if err != nil {
		ed.fail(err)
		return nil, err
	}

	ed.mu.Lock()
	ed.state = StateSucceeded
	if ed.original != nil {
		ed.closed = true
	}
	ed.mu.Unlock()

	if ed.original == nil {
		ed.notifier.Notify(NoticeSuccess, MsgCreated)
		ed.navigator.Navigate(RouteAllEvents)
		return saved, nil
	}
	// trust the echo only when it is the same event
	replacement := rec.Apply(*ed.original)
	if saved != nil && saved.ID == ed.original.ID {
		replacement = *saved
	}
	if ed.list != nil {
		ed.list.Replace(replacement)
	}
	ed.notifier.Notify(NoticeSuccess, MsgUpdated)
	return &replacement, nil
}

// Cancel discards the draft. The stored event and any list are left as they were.
func (ed *Editor) Cancel() {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.closed = true
	ed.errs = eventform.FieldErrors{}
	ed.state = StateEditing
	if ed.original != nil {
		ed.draft = eventform.FromEvent(*ed.original)
	} else {
		ed.draft = eventform.Draft{}
	}
}

func (ed *Editor) fail(err error) {
	ed.setState(StateFailed)

	msg := MsgUpdateFailed
	switch {
	case ed.original != nil && errors.Is(err, eventapi.ErrForbidden):
		msg = MsgEditNotAuthorized
	case ed.original == nil && eventapi.StatusOf(err) != 0:
		msg = MsgCreateRejected
	case ed.original == nil:
		msg = MsgCreateFailed
	}
	ed.notifier.Notify(NoticeError, msg)
	ed.logger.WithError(err).WithField("status", eventapi.StatusOf(err)).Warn("save event failed")

	ed.setState(StateEditing)
}

func (ed *Editor) setState(s State) {
	ed.mu.Lock()
	ed.state = s
	ed.mu.Unlock()
}
