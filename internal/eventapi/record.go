package eventapi

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/internal/eventform"
	"github.com/oksasatya/go-eventhub/pkg/validation"
)

// Draft is the user-entered form of an event.
type Draft = eventform.Draft

// Record is the request body for creating or replacing an event.
type Record struct {
	Title            string          `json:"title"`
	ShortDescription string          `json:"shortDescription"`
	FullDescription  string          `json:"fullDescription"`
	Price            decimal.Decimal `json:"price"`
	Date             string          `json:"date"`
	Category         string          `json:"category"`
	Location         string          `json:"location"`
	ImageURL         string          `json:"imageUrl"`
	Organizer        string          `json:"organizer"`
	OrganizerName    string          `json:"organizerName"`
}

// RecordFromDraft coerces the draft's price to a decimal and its date to RFC3339.
func RecordFromDraft(d Draft, organizerID, organizerName string) (Record, error) {
	price, err := validation.ParsePrice(d.Price)
	if err != nil {
		return Record{}, fmt.Errorf("price %q: %w", d.Price, err)
	}
	date, err := validation.ParseEventDate(d.Date)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Title:            d.Title,
		ShortDescription: d.ShortDescription,
		FullDescription:  d.FullDescription,
		Price:            price,
		Date:             date.Format(time.RFC3339),
		Category:         d.Category,
		Location:         d.Location,
		ImageURL:         d.ImageURL,
		Organizer:        organizerID,
		OrganizerName:    organizerName,
	}, nil
}

// RecordFromEvent builds the full replacement body for an unchanged event.
func RecordFromEvent(e entity.Event) Record {
	return Record{
		Title:            e.Title,
		ShortDescription: e.ShortDescription,
		FullDescription:  e.FullDescription,
		Price:            e.Price,
		Date:             e.Date.UTC().Format(time.RFC3339),
		Category:         string(e.Category),
		Location:         e.Location,
		ImageURL:         e.ImageURL,
		Organizer:        e.Organizer,
		OrganizerName:    e.OrganizerName,
	}
}

// Apply returns e with the record's editable fields written over it. Identity,
// organizer and creation time stay as they were on e.
func (r Record) Apply(e entity.Event) entity.Event {
	e.Title = r.Title
	e.ShortDescription = r.ShortDescription
	e.FullDescription = r.FullDescription
	e.Price = r.Price
	if d, err := time.Parse(time.RFC3339, r.Date); err == nil {
		e.Date = d
	}
	e.Category = entity.Category(r.Category)
	e.Location = r.Location
	e.ImageURL = r.ImageURL
	return e
}
