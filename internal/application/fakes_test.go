package application

import (
	"context"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/infrastructure/memory"
)

// countingRepo records how often the backing store is listed.
type countingRepo struct {
	*memory.EventRepository
	lists atomic.Int32
}

func (r *countingRepo) List(ctx context.Context) ([]entity.Event, error) {
	r.lists.Add(1)
	return r.EventRepository.List(ctx)
}

// racingRepo runs during between reading the rows and returning them.
type racingRepo struct {
	*memory.EventRepository
	during func(ctx context.Context)
	lists  int
}

func (r *racingRepo) List(ctx context.Context) ([]entity.Event, error) {
	r.lists++
	events, err := r.EventRepository.List(ctx)
	if r.during != nil {
		r.during(ctx)
	}
	return events, err
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(ctx context.Context, body any) error {
	args := m.Called(ctx, body)
	return args.Error(0)
}
