package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/domain/repository"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `id, title, short_description, full_description, price, date, category,
	location, image_url, organizer_id, organizer_name, created_at, updated_at`

func scanEvent(row pgx.Row) (*entity.Event, error) {
	e := &entity.Event{}
	var category string
	if err := row.Scan(&e.ID, &e.Title, &e.ShortDescription, &e.FullDescription, &e.Price,
		&e.Date, &category, &e.Location, &e.ImageURL, &e.Organizer, &e.OrganizerName,
		&e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Category = entity.Category(category)
	e.Date = e.Date.UTC()
	return e, nil
}

func (r *EventRepository) List(ctx context.Context) ([]entity.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return e, err
}

func (r *EventRepository) Create(ctx context.Context, e *entity.Event) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO events (title, short_description, full_description, price, date, category,
			location, image_url, organizer_id, organizer_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, e.Title, e.ShortDescription, e.FullDescription, e.Price, e.Date.UTC(), string(e.Category),
		e.Location, e.ImageURL, e.Organizer, e.OrganizerName)

	return row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *EventRepository) Replace(ctx context.Context, e *entity.Event) error {
	e.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE events
		SET title = $1, short_description = $2, full_description = $3, price = $4, date = $5,
			category = $6, location = $7, image_url = $8, updated_at = $9
		WHERE id = $10
	`, e.Title, e.ShortDescription, e.FullDescription, e.Price, e.Date.UTC(),
		string(e.Category), e.Location, e.ImageURL, e.UpdatedAt, e.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.EventRepository = (*EventRepository)(nil)
