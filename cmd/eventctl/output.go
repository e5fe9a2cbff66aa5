package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
)

const dateLayout = "Mon 02 Jan 2006 15:04 MST"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func price(e entity.Event) string {
	if e.Price.IsZero() {
		return "Free"
	}
	return "$" + e.Price.StringFixed(2)
}

func (a *app) printEvents(events []entity.Event, categories []string) error {
	if a.jsonOut {
		return printJSON(a.out, events)
	}
	if len(events) == 0 {
		fmt.Fprintln(a.out, "No events found.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tDATE\tLOCATION\tPRICE\tORGANIZER")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Title, e.Category, e.Date.UTC().Format(time.DateTime), e.Location, price(e), e.OrganizerName)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(categories) > 1 {
		fmt.Fprintf(a.out, "\nCategories: %s\n", strings.Join(categories, ", "))
	}
	return nil
}

func (a *app) printEvent(e entity.Event, image string) error {
	if a.jsonOut {
		return printJSON(a.out, e)
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"ID", e.ID},
		{"Title", e.Title},
		{"Summary", e.ShortDescription},
		{"Category", e.Category.String()},
		{"Date", e.Date.UTC().Format(dateLayout)},
		{"Location", e.Location},
		{"Price", price(e)},
		{"Organizer", e.OrganizerName},
		{"Image", image},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s:\t%s\n", r[0], r[1])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n%s\n", e.FullDescription)
	return nil
}
