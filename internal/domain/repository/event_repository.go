package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

// EventRepository defines the persistence operations for events.
// Replace overwrites every mutable field; Organizer and CreatedAt are never written.
type EventRepository interface {
	List(ctx context.Context) ([]entity.Event, error)
	GetByID(ctx context.Context, id string) (*entity.Event, error)
	Create(ctx context.Context, e *entity.Event) error
	Replace(ctx context.Context, e *entity.Event) error
	Delete(ctx context.Context, id string) error
}
