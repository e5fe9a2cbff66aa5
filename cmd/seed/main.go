package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/oksasatya/go-eventhub/config"
	"github.com/oksasatya/go-eventhub/internal/application"
	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	pginfra "github.com/oksasatya/go-eventhub/internal/infrastructure/postgres"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
)

type seedEvent struct {
	title, short, full, location string
	price                        decimal.Decimal
	category                     entity.Category
	inDays                       int
}

var demoEvents = []seedEvent{
	{"Go Jakarta Meetup", "Monthly gathering of Go developers", "Talks on concurrency patterns, followed by open networking.", "Jakarta", decimal.Zero, entity.CategoryTechnology, 14},
	{"Jazz by the Bay", "An evening of live jazz", "Three local quartets play standards and originals by the water.", "Bali", decimal.RequireFromString("25.00"), entity.CategoryMusic, 21},
	{"Startup Pitch Night", "Founders pitch to angel investors", "Ten early-stage teams, five minutes each, live feedback from the panel.", "Bandung", decimal.RequireFromString("10.00"), entity.CategoryBusiness, 30},
	{"Street Food Festival", "Taste the city in one afternoon", "Forty vendors, cooking demos and a chili eating contest.", "Surabaya", decimal.RequireFromString("5.50"), entity.CategoryFood, 45},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dsn := cfg.PostgresDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "organizer@eventhub.local"
	password := "Password123"
	name := "Demo Organizer"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, name, avatar_url, role, provider)
		VALUES ($1, $2, $3, '', $4, $5)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
		RETURNING id
	`, email, hash, name, entity.RoleAdmin, entity.ProviderCredentials).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s name=%s password=%s\n", id, email, name, password)

	// Events are only inserted once per title for this organizer
	now := time.Now().UTC().Truncate(time.Hour)
	for _, e := range demoEvents {
		res, err := db.Exec(`
			INSERT INTO events (title, short_description, full_description, price, date, category,
				location, image_url, organizer_id, organizer_name)
			SELECT $1::text, $2::text, $3::text, $4::numeric, $5::timestamptz, $6::text, $7::text, '', $8::uuid, $9::text
			WHERE NOT EXISTS (SELECT 1 FROM events WHERE organizer_id = $8::uuid AND title = $1::text)
		`, e.title, e.short, e.full, e.price, now.AddDate(0, 0, e.inDays), string(e.category), e.location, id, name)
		if err != nil {
			log.Fatalf("failed to seed event %q: %v", e.title, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			fmt.Printf("seeded event: %s (%s)\n", e.title, e.category)
		}
	}

	// rows inserted above bypass the service, so push them into search
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		if err := reindex(cfg, addrs); err != nil {
			log.Printf("search reindex skipped: %v", err)
		}
	}
}

func reindex(cfg *config.Config, addrs []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		return err
	}
	if err := helpers.EnsureIndex(ctx, es, cfg.ESEventsIndex, application.EventsIndexMapping); err != nil {
		return err
	}
	pool, err := pginfra.NewPool(ctx, pginfra.PoolOptions{DSN: cfg.PostgresDSN(), MaxConns: 2, ConnectAttempts: 1}, nil)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := application.NewEventService(pginfra.NewEventRepository(pool), nil, nil, es, cfg.ESEventsIndex, nil, 0)
	n, err := svc.Reindex(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d events into %s\n", n, cfg.ESEventsIndex)
	return nil
}
