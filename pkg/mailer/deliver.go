package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oksasatya/go-eventhub/pkg/mailer/templates"
)

// ErrPermanent marks jobs that will never succeed and must not be requeued.
var ErrPermanent = errors.New("permanent mail failure")

func IsPermanent(err error) bool { return errors.Is(err, ErrPermanent) }

// Deliver renders job when it names a template and hands it to s.
// Rendering failures and missing recipients are permanent; send failures are not.
func Deliver(ctx context.Context, s Sender, job EmailJob) error {
	if strings.TrimSpace(job.To) == "" {
		return fmt.Errorf("%w: missing recipient", ErrPermanent)
	}
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		var err error
		subject, text, html, err = templates.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
	}
	if subject == "" || (text == "" && html == "") {
		return fmt.Errorf("%w: empty message", ErrPermanent)
	}
	return s.Send(ctx, job.To, subject, text, html)
}
