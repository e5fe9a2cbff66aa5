package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-eventhub/internal/application"
	"github.com/oksasatya/go-eventhub/internal/interface/middleware"
	"github.com/oksasatya/go-eventhub/pkg/helpers"
	"github.com/oksasatya/go-eventhub/pkg/response"
	"github.com/oksasatya/go-eventhub/pkg/validation"
)

// Messages shown to clients for ownership and lookup failures.
const (
	MsgNotOrganizer  = "You are not authorized to modify this event. You can only modify events that you created."
	MsgEventNotFound = "Event not found"
)

// EventHandler serves the event resources. Events travel bare; errors use the response envelope.
type EventHandler struct {
	Svc    *application.EventService
	Logger *logrus.Logger
}

func NewEventHandler(svc *application.EventService, logger *logrus.Logger) *EventHandler {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &EventHandler{Svc: svc, Logger: logger}
}

// List GET /api/events
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// Search GET /api/events/search?q=&category=&size=
func (h *EventHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	events, err := h.Svc.Search(c.Request.Context(), c.Query("q"), c.Query("category"), size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// Get GET /api/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	e, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// Create POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	var req application.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	e, err := h.Svc.Create(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// Update PUT /api/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	var req application.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	e, err := h.Svc.Update(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// Delete DELETE /api/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.Svc.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"id": id}, "Event deleted successfully", nil)
}

func (h *EventHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrEventNotFound):
		response.Error[any](c, http.StatusNotFound, MsgEventNotFound, nil)
	case errors.Is(err, application.ErrNotOrganizer):
		response.Error[any](c, http.StatusForbidden, MsgNotOrganizer, nil)
	case errors.Is(err, application.ErrInvalidEvent):
		response.Error[any](c, http.StatusBadRequest, "invalid payload", err.Error())
	default:
		helpers.LogError(h.Logger, "event request failed", err, logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"id":     c.Param("id"),
		})
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
	}
}
