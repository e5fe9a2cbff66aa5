package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/domain/repository"
)

// EventRepository keeps events in process memory. Used when STORAGE=memory and by tests.
type EventRepository struct {
	mu     sync.RWMutex
	events map[string]entity.Event
}

func NewEventRepository(seed ...entity.Event) *EventRepository {
	r := &EventRepository{events: make(map[string]entity.Event, len(seed))}
	for _, e := range seed {
		r.events[e.ID] = e
	}
	return r
}

func (r *EventRepository) List(ctx context.Context) ([]entity.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *EventRepository) Create(ctx context.Context, e *entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	r.events[e.ID] = *e
	return nil
}

func (r *EventRepository) Replace(ctx context.Context, e *entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.events[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	e.Organizer = old.Organizer
	e.CreatedAt = old.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	r.events[e.ID] = *e
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

// Len reports how many events are stored.
func (r *EventRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

var _ repository.EventRepository = (*EventRepository)(nil)
