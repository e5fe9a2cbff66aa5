package entity

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultEventImage is shown whenever an event has no usable image URL.
const DefaultEventImage = "/default-event.jpg"

func init() {
	// prices travel as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Event is the aggregate root for the event domain.
// Organizer is fixed at creation and never rewritten by an update.
type Event struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	ShortDescription string          `json:"shortDescription"`
	FullDescription  string          `json:"fullDescription"`
	Price            decimal.Decimal `json:"price"`
	Date             time.Time       `json:"date"`
	Category         Category        `json:"category"`
	Location         string          `json:"location"`
	ImageURL         string          `json:"imageUrl,omitempty"`
	Organizer        string          `json:"organizer"`
	OrganizerName    string          `json:"organizerName"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// DisplayImage resolves the image to render. The stored ImageURL is left untouched.
func (e Event) DisplayImage() string {
	raw := strings.TrimSpace(e.ImageURL)
	if raw == "" {
		return DefaultEventImage
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return DefaultEventImage
	}
	return raw
}

// CanManage reports whether currentUserID may edit or delete a resource owned by ownerID.
func CanManage(currentUserID, ownerID string) bool {
	return currentUserID != "" && ownerID != "" && currentUserID == ownerID
}

// ManagedBy is CanManage bound to the event's organizer.
func (e Event) ManagedBy(userID string) bool {
	return CanManage(userID, e.Organizer)
}

// CategoryAll is the filter value that matches every category.
const CategoryAll = "all"

// MatchesSearch reports whether term is empty or a case-insensitive substring
// of the title or short description.
func MatchesSearch(e Event, term string) bool {
	if term == "" {
		return true
	}
	t := strings.ToLower(term)
	return strings.Contains(strings.ToLower(e.Title), t) ||
		strings.Contains(strings.ToLower(e.ShortDescription), t)
}

// MatchesCategory reports whether category is CategoryAll or equals the event's category.
func MatchesCategory(e Event, category string) bool {
	return category == CategoryAll || string(e.Category) == category
}
