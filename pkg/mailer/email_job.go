package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// EmailJob is the JSON payload put on the notifications queue.
// Either Subject with Text/HTML is set, or Template names a renderer fed by Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// DecodeJob parses a queue body. A body that is not a job is a permanent failure.
func DecodeJob(body []byte) (EmailJob, error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("%w: decode job: %v", ErrPermanent, err)
	}
	return job, nil
}

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Outcome tells the consumer what to do with a queue message.
type Outcome int

const (
	Ack Outcome = iota
	Drop
	Requeue
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case Drop:
		return "drop"
	default:
		return "requeue"
	}
}

// Handle decodes and delivers one queue body within timeout.
func Handle(ctx context.Context, s Sender, body []byte, timeout time.Duration) (EmailJob, Outcome, error) {
	job, err := DecodeJob(body)
	if err == nil {
		c, cancel := context.WithTimeout(ctx, timeout)
		err = Deliver(c, s, job)
		cancel()
	}
	switch {
	case err == nil:
		return job, Ack, nil
	case IsPermanent(err):
		return job, Drop, err
	default:
		return job, Requeue, err
	}
}
