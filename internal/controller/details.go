package controller

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-eventhub/internal/domain/entity"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
)

// Details loads a single event for the details view.
type Details struct {
	ID string

	api    EventAPI
	logger *logrus.Logger

	mu      sync.Mutex
	event   *entity.Event
	loading bool
	errMsg  string
	image   ImageState
}

func NewDetails(api EventAPI, id string, logger *logrus.Logger) *Details {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &Details{ID: id, api: api, logger: logger}
}

func (d *Details) Load(ctx context.Context) error {
	d.mu.Lock()
	d.loading = true
	d.mu.Unlock()

	e, err := d.api.GetByID(ctx, d.ID)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	if err != nil {
		d.event = nil
		d.errMsg = MsgDetailsFailed
		d.logger.WithError(err).WithField("event_id", d.ID).Warn("load event failed")
		return err
	}
	d.event = e
	d.errMsg = ""
	return nil
}

// Event returns the loaded event, or nil before a successful Load.
func (d *Details) Event() *entity.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.event == nil {
		return nil
	}
	cp := *d.event
	return &cp
}

func (d *Details) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

func (d *Details) Err() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg
}

func (d *Details) ImageFailed() {
	d.mu.Lock()
	d.image = ImageState{Loaded: true, Failed: true}
	d.mu.Unlock()
}

// DisplayImage is the image to render, falling back to the default after a failed load.
func (d *Details) DisplayImage() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.event == nil || d.image.Failed {
		return entity.DefaultEventImage
	}
	return d.event.DisplayImage()
}
