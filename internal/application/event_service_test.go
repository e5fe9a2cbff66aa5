package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/infrastructure/memory"
	"github.com/oksasatya/go-eventhub/pkg/mailer"
	mailtpl "github.com/oksasatya/go-eventhub/pkg/mailer/templates"
)

var (
	alice = Actor{ID: "11111111-1111-1111-1111-111111111111", Name: "Alice", Email: "alice@example.com"}
	bob   = Actor{ID: "22222222-2222-2222-2222-222222222222", Name: "Bob", Email: "bob@example.com"}
)

func validInput() EventInput {
	return EventInput{
		Title:            "Go Meetup",
		ShortDescription: "Monthly gophers",
		FullDescription:  "Talks and pizza",
		Price:            json.Number("10"),
		Date:             "2025-01-01T10:00",
		Category:         "Technology",
		Location:         "Jakarta",
	}
}

func storedEvent(owner Actor) entity.Event {
	return entity.Event{
		ID:               uuid.NewString(),
		Title:            "Jazz Night",
		ShortDescription: "Live jazz",
		FullDescription:  "Quartet",
		Price:            decimal.NewFromInt(25),
		Date:             time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC),
		Category:         entity.CategoryMusic,
		Location:         "Bandung",
		Organizer:        owner.ID,
		OrganizerName:    owner.Name,
		CreatedAt:        time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEventService_Create_UsesSessionOrganizer(t *testing.T) {
	repo := memory.NewEventRepository()
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, mock.MatchedBy(func(job mailer.EmailJob) bool {
		return job.To == alice.Email && job.Template == string(mailtpl.EventCreated)
	})).Return(nil).Once()

	svc := NewEventService(repo, nil, nil, nil, "", pub, 0)

	e, err := svc.Create(context.Background(), alice, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, alice.ID, e.Organizer)
	assert.Equal(t, "Alice", e.OrganizerName)
	assert.True(t, decimal.NewFromInt(10).Equal(e.Price))
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), e.Date)

	got, err := svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, alice.ID, got.Organizer)
	pub.AssertExpectations(t)
}

func TestEventService_Create_KeepsOrganizerName(t *testing.T) {
	svc := NewEventService(memory.NewEventRepository(), nil, nil, nil, "", nil, 0)
	in := validInput()
	in.Organizer = alice.ID
	in.OrganizerName = "Alice's Club"

	e, err := svc.Create(context.Background(), alice, in)
	require.NoError(t, err)
	assert.Equal(t, "Alice's Club", e.OrganizerName)
}

func TestEventService_Create_RejectsForeignOrganizer(t *testing.T) {
	repo := memory.NewEventRepository()
	svc := NewEventService(repo, nil, nil, nil, "", nil, 0)
	in := validInput()
	in.Organizer = bob.ID

	_, err := svc.Create(context.Background(), alice, in)
	assert.ErrorIs(t, err, ErrNotOrganizer)
	assert.Zero(t, repo.Len())
}

func TestEventService_Create_InvalidPayload(t *testing.T) {
	svc := NewEventService(memory.NewEventRepository(), nil, nil, nil, "", nil, 0)
	cases := map[string]func(*EventInput){
		"negative price": func(in *EventInput) { in.Price = "-1" },
		"text price":     func(in *EventInput) { in.Price = "abc" },
		"sub-cent price": func(in *EventInput) { in.Price = "10.555" },
		"bad date":       func(in *EventInput) { in.Date = "tomorrow" },
		"bad category":   func(in *EventInput) { in.Category = "Gaming" },
		"blank title":    func(in *EventInput) { in.Title = "   " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Create(context.Background(), alice, in)
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}

func TestEventService_Update_OnlyOrganizer(t *testing.T) {
	stored := storedEvent(alice)
	repo := memory.NewEventRepository(stored)
	svc := NewEventService(repo, nil, nil, nil, "", nil, 0)

	ctx := context.Background()
	_, err := svc.Update(ctx, bob, stored.ID, validInput())
	assert.ErrorIs(t, err, ErrNotOrganizer)
	kept, err := repo.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", kept.Title)

	in := validInput()
	in.Organizer = bob.ID
	updated, err := svc.Update(ctx, alice, stored.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Go Meetup", updated.Title)
	assert.Equal(t, alice.ID, updated.Organizer)
	kept, err = repo.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, kept.Organizer)
}

func TestEventService_Update_Missing(t *testing.T) {
	svc := NewEventService(memory.NewEventRepository(), nil, nil, nil, "", nil, 0)
	_, err := svc.Update(context.Background(), alice, uuid.NewString(), validInput())
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventService_Delete(t *testing.T) {
	stored := storedEvent(alice)
	repo := memory.NewEventRepository(stored)
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, mock.Anything).Return(nil)
	svc := NewEventService(repo, nil, nil, nil, "", pub, 0)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, bob, stored.ID), ErrNotOrganizer)
	assert.Equal(t, 1, repo.Len())
	pub.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)

	require.NoError(t, svc.Delete(ctx, alice, stored.ID))
	assert.Zero(t, repo.Len())

	assert.ErrorIs(t, svc.Delete(ctx, alice, stored.ID), ErrEventNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, alice, "not-a-uuid"), ErrEventNotFound)
	pub.AssertNumberOfCalls(t, "PublishJSON", 1)
}

func TestEventService_List_UsesCache(t *testing.T) {
	stored := storedEvent(alice)
	repo := &countingRepo{EventRepository: memory.NewEventRepository(stored)}
	rdb, rmock := redismock.NewClientMock()
	svc := NewEventService(repo, rdb, nil, nil, "", nil, time.Minute)
	ctx := context.Background()

	payload, err := json.Marshal([]entity.Event{stored})
	require.NoError(t, err)

	rmock.ExpectGet(eventsGenKey).RedisNil()
	rmock.ExpectGet("events:all:0").RedisNil()
	rmock.ExpectSet("events:all:0", payload, time.Minute).SetVal("OK")
	rmock.ExpectGet(eventsGenKey).RedisNil()
	rmock.ExpectGet("events:all:0").SetVal(string(payload))

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, stored.ID, second[0].ID)

	assert.Equal(t, int32(1), repo.lists.Load())
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestEventService_Create_InvalidatesCache(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	svc := NewEventService(memory.NewEventRepository(), rdb, nil, nil, "", nil, time.Minute)

	rmock.ExpectIncr(eventsGenKey).SetVal(1)

	_, err := svc.Create(context.Background(), alice, validInput())
	require.NoError(t, err)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestEventService_List_WriteDuringReadDoesNotPoisonCache(t *testing.T) {
	stored := storedEvent(alice)
	rdb, rmock := redismock.NewClientMock()
	repo := &racingRepo{EventRepository: memory.NewEventRepository(stored)}
	svc := NewEventService(repo, rdb, nil, nil, "", nil, time.Minute)
	repo.during = func(ctx context.Context) { svc.invalidate(ctx) }
	ctx := context.Background()

	payload, err := json.Marshal([]entity.Event{stored})
	require.NoError(t, err)

	rmock.ExpectGet(eventsGenKey).SetVal("3")
	rmock.ExpectGet("events:all:3").RedisNil()
	rmock.ExpectIncr(eventsGenKey).SetVal(4)
	// the stale rows land under the old generation
	rmock.ExpectSet("events:all:3", payload, time.Minute).SetVal("OK")
	rmock.ExpectGet(eventsGenKey).SetVal("4")
	rmock.ExpectGet("events:all:4").RedisNil()
	rmock.ExpectSet("events:all:4", payload, time.Minute).SetVal("OK")

	_, err = svc.List(ctx)
	require.NoError(t, err)
	repo.during = nil
	_, err = svc.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.lists)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestEventService_Search_WithoutIndex(t *testing.T) {
	jazz := storedEvent(alice)
	tech := storedEvent(bob)
	tech.Title = "Go Conference"
	tech.ShortDescription = "Gophers unite"
	tech.Category = entity.CategoryTechnology
	svc := NewEventService(memory.NewEventRepository(jazz, tech), nil, nil, nil, "", nil, 0)
	ctx := context.Background()

	got, err := svc.Search(ctx, "go", "all", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tech.ID, got[0].ID)

	got, err = svc.Search(ctx, "", "Music", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, jazz.ID, got[0].ID)

	got, err = svc.Search(ctx, "jazz", "Technology", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
