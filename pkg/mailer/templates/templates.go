package templates

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
)

type EmailType string

const (
	EventCreated EmailType = "event_created"
	EventUpdated EmailType = "event_updated"
	EventDeleted EmailType = "event_deleted"
)

// EventData is the data map shape the event templates read.
type EventData struct {
	AppName       string
	OrganizerName string
	EventID       string
	Title         string
	Date          string
	Location      string
	Category      string
	Price         string
	Link          string
}

// ToMap converts EventData to a map[string]any for EmailJob.Data
func ToMap(d EventData) map[string]any {
	return map[string]any{
		"AppName":       d.AppName,
		"OrganizerName": d.OrganizerName,
		"EventID":       d.EventID,
		"Title":         d.Title,
		"Date":          d.Date,
		"Location":      d.Location,
		"Category":      d.Category,
		"Price":         d.Price,
		"Link":          d.Link,
	}
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.IsZero() {
			return fallback
		}
		return value
	}
}

type source struct {
	subject string
	text    string
	html    string
}

var sources = map[EmailType]source{
	EventCreated: {
		subject: `Your event "{{ .Title }}" is live`,
		text: `Hi {{ .OrganizerName | default "there" }},

Your event "{{ .Title }}" has been published on {{ .AppName | default "EventHub" }}.

When:     {{ .Date }}
Where:    {{ .Location }}
Category: {{ .Category }}
Price:    {{ .Price }}

{{ with .Link }}View it here: {{ . }}{{ end }}
`,
		html: `<p>Hi {{ .OrganizerName | default "there" }},</p>
<p>Your event <strong>{{ .Title }}</strong> has been published on {{ .AppName | default "EventHub" }}.</p>
<ul>
<li>When: {{ .Date }}</li>
<li>Where: {{ .Location }}</li>
<li>Category: {{ .Category }}</li>
<li>Price: {{ .Price }}</li>
</ul>
{{ with .Link }}<p><a href="{{ . }}">View event</a></p>{{ end }}`,
	},
	EventUpdated: {
		subject: `Your event "{{ .Title }}" was updated`,
		text: `Hi {{ .OrganizerName | default "there" }},

The details of "{{ .Title }}" were saved.

When:  {{ .Date }}
Where: {{ .Location }}
{{ with .Link }}
View it here: {{ . }}{{ end }}
`,
		html: `<p>Hi {{ .OrganizerName | default "there" }},</p>
<p>The details of <strong>{{ .Title }}</strong> were saved.</p>
<ul><li>When: {{ .Date }}</li><li>Where: {{ .Location }}</li></ul>
{{ with .Link }}<p><a href="{{ . }}">View event</a></p>{{ end }}`,
	},
	EventDeleted: {
		subject: `Your event "{{ .Title }}" was deleted`,
		text: `Hi {{ .OrganizerName | default "there" }},

Your event "{{ .Title }}" scheduled for {{ .Date }} has been removed from {{ .AppName | default "EventHub" }}.
`,
		html: `<p>Hi {{ .OrganizerName | default "there" }},</p>
<p>Your event <strong>{{ .Title }}</strong> scheduled for {{ .Date }} has been removed from {{ .AppName | default "EventHub" }}.</p>`,
	},
}

type compiled struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var registry = func() map[EmailType]compiled {
	out := make(map[EmailType]compiled, len(sources))
	for name, src := range sources {
		n := string(name)
		out[name] = compiled{
			subject: texttpl.Must(texttpl.New(n + ".subject").Funcs(texttpl.FuncMap{"default": defaultFn}).Parse(src.subject)),
			text:    texttpl.Must(texttpl.New(n + ".text").Funcs(texttpl.FuncMap{"default": defaultFn}).Parse(src.text)),
			html:    htmpl.Must(htmpl.New(n + ".html").Funcs(htmpl.FuncMap{"default": defaultFn}).Parse(src.html)),
		}
	}
	return out
}()

// Render executes the named template with data and returns subject, text and HTML bodies.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	tpl, ok := registry[EmailType(name)]
	if !ok {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	var sb, tb, hb bytes.Buffer
	if err := tpl.subject.Execute(&sb, data); err != nil {
		return "", "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := tpl.text.Execute(&tb, data); err != nil {
		return "", "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	if err := tpl.html.Execute(&hb, data); err != nil {
		return "", "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), tb.String(), hb.String(), nil
}
