package eventform

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/pkg/validation"
)

// Field names, as used on the wire and in FieldErrors lookups.
const (
	FieldTitle            = "title"
	FieldShortDescription = "shortDescription"
	FieldFullDescription  = "fullDescription"
	FieldPrice            = "price"
	FieldDate             = "date"
	FieldCategory         = "category"
	FieldLocation         = "location"
	FieldImageURL         = "imageUrl"
)

// Draft is the editable, not yet validated form of an event. Every field
// holds what the user typed.
type Draft struct {
	Title            string `json:"title" validate:"notblank"`
	ShortDescription string `json:"shortDescription" validate:"notblank"`
	FullDescription  string `json:"fullDescription" validate:"notblank"`
	Price            string `json:"price" validate:"price"`
	Date             string `json:"date" validate:"required,eventdate"`
	Category         string `json:"category" validate:"category"`
	Location         string `json:"location" validate:"notblank"`
	ImageURL         string `json:"imageUrl"`
}

// FromEvent loads an existing event into a draft. The date is rendered in
// the edit-friendly local form.
func FromEvent(e entity.Event) Draft {
	d := Draft{
		Title:            e.Title,
		ShortDescription: e.ShortDescription,
		FullDescription:  e.FullDescription,
		Price:            e.Price.String(),
		Category:         string(e.Category),
		Location:         e.Location,
		ImageURL:         e.ImageURL,
	}
	if !e.Date.IsZero() {
		d.Date = e.Date.UTC().Format(validation.LocalDateTimeLayout)
	}
	return d
}

// Set assigns value to the named field. It reports false for unknown fields.
func (d *Draft) Set(field, value string) bool {
	switch field {
	case FieldTitle:
		d.Title = value
	case FieldShortDescription:
		d.ShortDescription = value
	case FieldFullDescription:
		d.FullDescription = value
	case FieldPrice:
		d.Price = value
	case FieldDate:
		d.Date = value
	case FieldCategory:
		d.Category = value
	case FieldLocation:
		d.Location = value
	case FieldImageURL:
		d.ImageURL = value
	default:
		return false
	}
	return true
}

// FieldErrors holds at most one message per field. A blank message means the field is valid.
type FieldErrors struct {
	Title            string
	ShortDescription string
	FullDescription  string
	Price            string
	Date             string
	Category         string
	Location         string
}

func (fe FieldErrors) Empty() bool {
	return fe == FieldErrors{}
}

func (fe FieldErrors) Get(field string) string {
	if p := fe.slot(field); p != nil {
		return *p
	}
	return ""
}

// Clear drops the message for field, typically after the user edits it.
func (fe *FieldErrors) Clear(field string) {
	if p := fe.slot(field); p != nil {
		*p = ""
	}
}

// Map returns the non-blank messages keyed by field name.
func (fe FieldErrors) Map() map[string]string {
	out := map[string]string{}
	for _, f := range []string{FieldTitle, FieldShortDescription, FieldFullDescription, FieldPrice, FieldDate, FieldCategory, FieldLocation} {
		if msg := fe.Get(f); msg != "" {
			out[f] = msg
		}
	}
	return out
}

func (fe *FieldErrors) slot(field string) *string {
	switch field {
	case FieldTitle:
		return &fe.Title
	case FieldShortDescription:
		return &fe.ShortDescription
	case FieldFullDescription:
		return &fe.FullDescription
	case FieldPrice:
		return &fe.Price
	case FieldDate:
		return &fe.Date
	case FieldCategory:
		return &fe.Category
	case FieldLocation:
		return &fe.Location
	}
	return nil
}

var validate = validation.New(entity.CategoryNames())

// Validate checks every field of d and returns the per-field messages.
// It has no side effects.
func Validate(d Draft) FieldErrors {
	var out FieldErrors
	err := validate.Struct(d)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// only reachable with a broken validator setup
		out.Title = err.Error()
		return out
	}
	for _, e := range verrs {
		if p := out.slot(e.Field()); p != nil {
			*p = message(e.Field(), e.Tag())
		}
	}
	return out
}

func message(field, tag string) string {
	switch field {
	case FieldTitle:
		return "Title is required"
	case FieldShortDescription:
		return "Short description is required"
	case FieldFullDescription:
		return "Full description is required"
	case FieldLocation:
		return "Location is required"
	case FieldPrice:
		return "Valid price is required"
	case FieldCategory:
		return "Category is required"
	case FieldDate:
		if tag == "required" {
			return "Date is required"
		}
		return "Valid date is required"
	}
	return field + " is invalid"
}
