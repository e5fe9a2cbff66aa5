package eventform

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
)

func validDraft() Draft {
	return Draft{
		Title:            "Go Meetup",
		ShortDescription: "Monthly gathering",
		FullDescription:  "Talks and networking",
		Price:            "10",
		Date:             "2025-03-01T18:30",
		Category:         "Technology",
		Location:         "Jakarta",
	}
}

func TestValidate_ValidDraft(t *testing.T) {
	errs := Validate(validDraft())
	assert.True(t, errs.Empty())
	assert.Empty(t, errs.Map())
}

func TestValidate_SingleBlankField(t *testing.T) {
	cases := map[string]string{
		FieldTitle:            "Title is required",
		FieldShortDescription: "Short description is required",
		FieldFullDescription:  "Full description is required",
		FieldLocation:         "Location is required",
		FieldCategory:         "Category is required",
		FieldDate:             "Date is required",
		FieldPrice:            "Valid price is required",
	}
	for field, want := range cases {
		t.Run(field, func(t *testing.T) {
			d := validDraft()
			require.True(t, d.Set(field, "   "))
			if field == FieldDate {
				d.Date = ""
			}
			errs := Validate(d)
			assert.Equal(t, map[string]string{field: want}, errs.Map())
		})
	}
}

func TestValidate_Price(t *testing.T) {
	for _, p := range []string{"-1", "abc", "", "10.555"} {
		d := validDraft()
		d.Price = p
		assert.Equal(t, "Valid price is required", Validate(d).Price, "price %q", p)
	}
	for _, p := range []string{"0", "10", "12.50", "12.500", " 3 "} {
		d := validDraft()
		d.Price = p
		assert.Empty(t, Validate(d).Price, "price %q", p)
	}
}

func TestValidate_DateFormats(t *testing.T) {
	d := validDraft()
	d.Date = "2025-03-01T18:30:00Z"
	assert.True(t, Validate(d).Empty())

	d.Date = "next friday"
	assert.Equal(t, "Valid date is required", Validate(d).Date)
}

func TestValidate_UnknownCategory(t *testing.T) {
	d := validDraft()
	d.Category = "Gaming"
	assert.Equal(t, "Category is required", Validate(d).Category)
}

func TestValidate_ImageURLNeverFails(t *testing.T) {
	d := validDraft()
	d.ImageURL = "not a url"
	assert.True(t, Validate(d).Empty())
}

func TestFieldErrors_Clear(t *testing.T) {
	errs := Validate(Draft{})
	require.False(t, errs.Empty())
	assert.Equal(t, "Title is required", errs.Get(FieldTitle))

	errs.Clear(FieldTitle)
	assert.Empty(t, errs.Get(FieldTitle))
	assert.NotEmpty(t, errs.Get(FieldLocation))
	assert.Empty(t, errs.Get("unknown"))
}

func TestFromEvent(t *testing.T) {
	e := entity.Event{
		Title:    "Jazz",
		Price:    decimal.RequireFromString("25.5"),
		Date:     time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC),
		Category: entity.CategoryMusic,
		ImageURL: "https://example.com/jazz.png",
	}
	d := FromEvent(e)
	assert.Equal(t, "2025-06-01T19:00", d.Date)
	assert.Equal(t, "25.5", d.Price)
	assert.Equal(t, "Music", d.Category)
	assert.Equal(t, e.ImageURL, d.ImageURL)
}

func TestDraftSet_UnknownField(t *testing.T) {
	var d Draft
	assert.False(t, d.Set("organizer", "u1"))
}
