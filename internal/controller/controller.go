package controller

import (
	"context"
	"errors"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/eventapi"
)

// Routes the controllers navigate to.
const (
	RouteAllEvents = "/all-events"
	RouteLogin     = "/login"
)

// User-facing messages.
const (
	MsgLoadFailed          = "Error loading events. Please try again."
	MsgDetailsFailed       = "Event not found or failed to load"
	MsgEventNotFound       = "Event not found!"
	MsgDeleteNotAuthorized = "You are not authorized to delete this event. You can only delete events that you created."
	MsgDeleteForbidden     = "You are not authorized to delete this event. Please make sure you are the event organizer."
	MsgDeleteGone          = "Event not found. It may have been already deleted."
	MsgDeleteNetwork       = "Failed to delete event. Please check your internet connection and try again."
	MsgDeleteFailed        = "Failed to delete event"
	MsgDeleted             = "Event deleted successfully!"
	MsgEditNotAuthorized   = "You are not authorized to edit this event. You can only edit events that you created."
	MsgCreated             = "Event created successfully!"
	MsgCreateRejected      = "Event not created please try again later"
	MsgCreateFailed        = "Failed to create event. Please try again."
	MsgUpdated             = "Event updated successfully!"
	MsgUpdateFailed        = "Failed to update event"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNotOrganizer  = errors.New("only the organizer can manage this event")
	ErrInvalidDraft  = errors.New("event form has errors")
	ErrBusy          = errors.New("a submission is already in progress")
	ErrClosed        = errors.New("editor is closed")
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notifier shows transient messages to the user.
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(path string)
}

// EventAPI is the subset of the API client the controllers use.
type EventAPI interface {
	List(ctx context.Context) ([]entity.Event, error)
	GetByID(ctx context.Context, id string) (*entity.Event, error)
	Create(ctx context.Context, d eventapi.Draft, organizerID, organizerName string) (*entity.Event, error)
	Update(ctx context.Context, id string, rec eventapi.Record) (*entity.Event, error)
	Delete(ctx context.Context, id string) error
}

// SessionSource yields the signed-in user. session.Provider implements it.
type SessionSource interface {
	User() (entity.Identity, error)
}

type nopNotifier struct{}

func (nopNotifier) Notify(NoticeKind, string) {}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}

// alwaysConfirm approves every prompt.
type alwaysConfirm struct{}

func (alwaysConfirm) Confirm(string) bool { return true }
