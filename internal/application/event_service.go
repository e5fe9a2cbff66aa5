package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	repo "github.com/oksasatya/go-eventhub/internal/domain/repository"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
	"github.com/oksasatya/go-eventhub/pkg/mailer"
	mailtpl "github.com/oksasatya/go-eventhub/pkg/mailer/templates"
	"github.com/oksasatya/go-eventhub/pkg/metrics"
	"github.com/oksasatya/go-eventhub/pkg/validation"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNotOrganizer  = errors.New("only the organizer can modify this event")
	ErrInvalidEvent  = errors.New("invalid event")
)

const (
	eventsCacheKey = "events:all"
	// eventsGenKey is bumped on every mutation. List snapshots are stored
	// under the generation they were read in, so a read that races a write
	// can never repopulate the current generation with old rows.
	eventsGenKey = "events:gen"
)

// EventsIndexMapping is the Elasticsearch mapping for the events index.
const EventsIndexMapping = `{
  "mappings": {
    "properties": {
      "id":               {"type": "keyword"},
      "title":            {"type": "text"},
      "shortDescription": {"type": "text"},
      "fullDescription":  {"type": "text"},
      "category":         {"type": "keyword"},
      "location":         {"type": "text"},
      "organizer":        {"type": "keyword"},
      "organizerName":    {"type": "text"},
      "price":            {"type": "scaled_float", "scaling_factor": 100},
      "date":             {"type": "date"},
      "createdAt":        {"type": "date"}
    }
  }
}`

// JobPublisher queues background jobs. *helpers.RabbitPublisher satisfies it.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Actor is the authenticated user performing a mutation.
type Actor struct {
	ID    string
	Name  string
	Email string
}

// EventInput is the create/replace payload. Every field is sent on update.
type EventInput struct {
	Title            string      `json:"title" binding:"required,notblank"`
	ShortDescription string      `json:"shortDescription" binding:"required,notblank"`
	FullDescription  string      `json:"fullDescription" binding:"required,notblank"`
	Price            json.Number `json:"price" binding:"required,price"`
	Date             string      `json:"date" binding:"required,eventdate"`
	Category         string      `json:"category" binding:"required,category"`
	Location         string      `json:"location" binding:"required,notblank"`
	ImageURL         string      `json:"imageUrl"`
	Organizer        string      `json:"organizer"`
	OrganizerName    string      `json:"organizerName"`
}

// apply copies the mutable fields of in onto e. Organizer fields are left alone.
func (in EventInput) apply(e *entity.Event) error {
	price, err := validation.ParsePrice(in.Price.String())
	if err != nil || !validation.ValidPrice(price) {
		return fmt.Errorf("%w: price", ErrInvalidEvent)
	}
	date, err := validation.ParseEventDate(in.Date)
	if err != nil {
		return fmt.Errorf("%w: date", ErrInvalidEvent)
	}
	cat := entity.Category(strings.TrimSpace(in.Category))
	if !cat.Valid() {
		return fmt.Errorf("%w: category", ErrInvalidEvent)
	}
	e.Title = strings.TrimSpace(in.Title)
	e.ShortDescription = strings.TrimSpace(in.ShortDescription)
	e.FullDescription = strings.TrimSpace(in.FullDescription)
	e.Location = strings.TrimSpace(in.Location)
	if e.Title == "" || e.ShortDescription == "" || e.FullDescription == "" || e.Location == "" {
		return fmt.Errorf("%w: required text", ErrInvalidEvent)
	}
	e.Price = price
	e.Date = date
	e.Category = cat
	e.ImageURL = strings.TrimSpace(in.ImageURL)
	return nil
}

type EventService struct {
	Repo     repo.EventRepository
	Redis    redis.Cmdable
	Logger   *logrus.Logger
	ES       *elasticsearch.Client
	ESIndex  string
	Jobs     JobPublisher
	CacheTTL time.Duration
	AppName  string
	AppURL   string
}

func NewEventService(r repo.EventRepository, rdb redis.Cmdable, logger *logrus.Logger, es *elasticsearch.Client, esIndex string, jobs JobPublisher, cacheTTL time.Duration) *EventService {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &EventService{
		Repo:     r,
		Redis:    rdb,
		Logger:   logger,
		ES:       es,
		ESIndex:  esIndex,
		Jobs:     jobs,
		CacheTTL: cacheTTL,
	}
}

// List returns every event, newest first. The result is cached in Redis until the next mutation.
func (s *EventService) List(ctx context.Context) ([]entity.Event, error) {
	cache := helpers.NewJSONCache[[]entity.Event](s.Redis, s.CacheTTL)
	key, cacheable := s.listCacheKey(ctx)
	if cacheable {
		cached, hit, err := cache.Get(ctx, key)
		if err != nil {
			s.Logger.WithError(err).WithField("key", key).Warn("event cache read failed")
		}
		metrics.TrackCache(hit)
		if hit {
			return cached, nil
		}
	}

	events, err := s.Repo.List(ctx)
	if err != nil {
		metrics.TrackEventOperation("list", metrics.ResultError)
		return nil, err
	}
	if cacheable {
		if err := cache.Set(ctx, key, events); err != nil {
			s.Logger.WithError(err).WithField("key", key).Warn("event cache write failed")
		}
	}
	metrics.TrackEventOperation("list", metrics.ResultOK)
	return events, nil
}

// listCacheKey names the snapshot for the current generation. A missing
// generation counts as zero; any other read error skips the cache.
func (s *EventService) listCacheKey(ctx context.Context) (string, bool) {
	if s.Redis == nil {
		return "", false
	}
	gen, err := s.Redis.Get(ctx, eventsGenKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.Logger.WithError(err).WithField("key", eventsGenKey).Warn("event cache generation read failed")
		return "", false
	}
	return fmt.Sprintf("%s:%d", eventsCacheKey, gen), true
}

// Get returns one event. Malformed ids are reported as not found.
func (s *EventService) Get(ctx context.Context, id string) (*entity.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrEventNotFound
	}
	e, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create stores a new event owned by the actor. A payload naming another organizer is refused.
func (s *EventService) Create(ctx context.Context, actor Actor, in EventInput) (*entity.Event, error) {
	if actor.ID == "" {
		return nil, ErrNotOrganizer
	}
	if o := strings.TrimSpace(in.Organizer); o != "" && o != actor.ID {
		metrics.TrackEventOperation("create", metrics.ResultForbidden)
		return nil, ErrNotOrganizer
	}

	e := &entity.Event{Organizer: actor.ID, OrganizerName: strings.TrimSpace(in.OrganizerName)}
	if e.OrganizerName == "" {
		e.OrganizerName = actor.Name
	}
	if err := in.apply(e); err != nil {
		metrics.TrackEventOperation("create", metrics.ResultInvalid)
		return nil, err
	}
	if err := s.Repo.Create(ctx, e); err != nil {
		metrics.TrackEventOperation("create", metrics.ResultError)
		return nil, err
	}

	s.afterWrite(ctx, e)
	s.notify(ctx, mailtpl.EventCreated, actor, e)
	metrics.TrackEventOperation("create", metrics.ResultOK)
	s.Logger.WithFields(logrus.Fields{"event_id": e.ID, "organizer": e.Organizer}).Info("event created")
	return e, nil
}

// Update replaces every mutable field of the event. Only the organizer may do so;
// the stored organizer is kept whatever the payload says.
func (s *EventService) Update(ctx context.Context, actor Actor, id string, in EventInput) (*entity.Event, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		s.trackLookup("update", err)
		return nil, err
	}
	if !e.ManagedBy(actor.ID) {
		metrics.TrackEventOperation("update", metrics.ResultForbidden)
		return nil, ErrNotOrganizer
	}
	if err := in.apply(e); err != nil {
		metrics.TrackEventOperation("update", metrics.ResultInvalid)
		return nil, err
	}
	if err := s.Repo.Replace(ctx, e); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			metrics.TrackEventOperation("update", metrics.ResultNotFound)
			return nil, ErrEventNotFound
		}
		metrics.TrackEventOperation("update", metrics.ResultError)
		return nil, err
	}

	s.afterWrite(ctx, e)
	s.notify(ctx, mailtpl.EventUpdated, actor, e)
	metrics.TrackEventOperation("update", metrics.ResultOK)
	return e, nil
}

// Delete removes the event. Only the organizer may do so.
func (s *EventService) Delete(ctx context.Context, actor Actor, id string) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		s.trackLookup("delete", err)
		return err
	}
	if !e.ManagedBy(actor.ID) {
		metrics.TrackEventOperation("delete", metrics.ResultForbidden)
		return ErrNotOrganizer
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			metrics.TrackEventOperation("delete", metrics.ResultNotFound)
			return ErrEventNotFound
		}
		metrics.TrackEventOperation("delete", metrics.ResultError)
		return err
	}

	s.invalidate(ctx)
	s.unindex(ctx, id)
	s.notify(ctx, mailtpl.EventDeleted, actor, e)
	metrics.TrackEventOperation("delete", metrics.ResultOK)
	s.Logger.WithFields(logrus.Fields{"event_id": id, "organizer": actor.ID}).Info("event deleted")
	return nil
}

// Search matches q against title and descriptions and narrows by category ("" or "all" for any).
// Without Elasticsearch it filters the cached list in memory with the same rules.
func (s *EventService) Search(ctx context.Context, q, category string, size int) ([]entity.Event, error) {
	if size <= 0 || size > 100 {
		size = 20
	}
	q = strings.TrimSpace(q)
	if category == entity.CategoryAll {
		category = ""
	}

	if s.ES == nil || s.ESIndex == "" {
		all, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]entity.Event, 0)
		for _, e := range all {
			if !entity.MatchesSearch(e, q) || (category != "" && !entity.MatchesCategory(e, category)) {
				continue
			}
			out = append(out, e)
			if len(out) == size {
				break
			}
		}
		return out, nil
	}

	return s.searchES(ctx, q, category, size)
}

func (s *EventService) searchES(ctx context.Context, q, category string, size int) ([]entity.Event, error) {
	boolQuery := map[string]any{}
	if q != "" {
		boolQuery["must"] = []any{map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "shortDescription", "fullDescription"},
			},
		}}
	}
	if category != "" {
		boolQuery["filter"] = []any{map[string]any{"term": map[string]any{"category": category}}}
	}
	query := map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"sort":  []any{map[string]any{"createdAt": "desc"}},
		"size":  size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		return nil, fmt.Errorf("search events: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source entity.Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]entity.Event, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

// Reindex pushes every stored event to the search index.
func (s *EventService) Reindex(ctx context.Context) (int, error) {
	if s.ES == nil || s.ESIndex == "" {
		return 0, nil
	}
	events, err := s.Repo.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range events {
		if err := s.index(ctx, &events[i]); err == nil {
			n++
		}
	}
	return n, nil
}

func (s *EventService) trackLookup(op string, err error) {
	if errors.Is(err, ErrEventNotFound) {
		metrics.TrackEventOperation(op, metrics.ResultNotFound)
		return
	}
	metrics.TrackEventOperation(op, metrics.ResultError)
}

func (s *EventService) afterWrite(ctx context.Context, e *entity.Event) {
	s.invalidate(ctx)
	_ = s.index(ctx, e)
}

func (s *EventService) invalidate(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Incr(ctx, eventsGenKey).Err(); err != nil {
		s.Logger.WithError(err).WithField("key", eventsGenKey).Warn("event cache invalidation failed")
	}
}

func (s *EventService) index(ctx context.Context, e *entity.Event) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: e.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("event_id", e.ID).Warn("es index failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("event_id", e.ID).Warn("es index response error")
		return fmt.Errorf("index event: %s", res.Status())
	}
	return nil
}

func (s *EventService) unindex(ctx context.Context, id string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: id}.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("event_id", id).Warn("es delete failed")
		return
	}
	_ = res.Body.Close()
}

// notify queues an organizer email. Failures are logged and never fail the request.
func (s *EventService) notify(ctx context.Context, kind mailtpl.EmailType, actor Actor, e *entity.Event) {
	if s.Jobs == nil || actor.Email == "" {
		return
	}
	link := ""
	if s.AppURL != "" && kind != mailtpl.EventDeleted {
		link = strings.TrimRight(s.AppURL, "/") + "/events/" + e.ID
	}
	job := mailer.EmailJob{
		To:       actor.Email,
		Template: string(kind),
		Data: mailtpl.ToMap(mailtpl.EventData{
			AppName:       s.AppName,
			OrganizerName: e.OrganizerName,
			EventID:       e.ID,
			Title:         e.Title,
			Date:          e.Date.UTC().Format(time.RFC3339),
			Location:      e.Location,
			Category:      e.Category.String(),
			Price:         e.Price.String(),
			Link:          link,
		}),
	}
	if err := s.Jobs.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"event_id": e.ID, "template": kind}).Warn("publish notification failed")
	}
}
