package handler

import (
	"net/http"

	"github.com/truongnet3103/albion-GE/internal/logger"
	"github.com/truongnet3103/albion-GE/internal/model"
	"github.com/truongnet3103/albion-GE/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct{ roster *service.RosterService }

func NewEventHandler(roster *service.RosterService) *EventHandler {
	return &EventHandler{roster: roster}
}

// GET /api/events
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.roster.ListEvents(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	c.JSON(http.StatusOK, events)
}

// POST /api/events  body: {"name":"...","type":"ZvZ","event_date":"2026-10-19"}
func (h *EventHandler) Create(c *gin.Context) {
	var req model.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	ev, err := h.roster.CreateEvent(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info("event.created", "uid", c.GetInt("user_id"), "event", ev.ID, "type", ev.Type)
	c.JSON(http.StatusCreated, ev)
}

// DELETE /api/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.roster.DeleteEvent(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	logger.Info("event.deleted", "uid", c.GetInt("user_id"), "event", id)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/events/:id/attendance
func (h *EventHandler) Attendance(c *gin.Context) {
	rows, err := h.roster.EventAttendance(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []model.Attendance{}
	}
	c.JSON(http.StatusOK, rows)
}
