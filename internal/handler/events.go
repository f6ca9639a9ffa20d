package handler

import (
	"io"
	"net/http"
	"time"

	"botica/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const ssePingInterval = 25 * time.Second

type EventsHandler struct {
	hub          *realtime.Hub
	pingInterval time.Duration
}

func NewEventsHandler(hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{hub: hub, pingInterval: ssePingInterval}
}

// Stream godoc
// @Summary      Stream de eventos
// @Description  Server-Sent Events con los cambios de ventas, stock y alertas. Entrega best-effort.
// @Tags         events
// @Produce      text/event-stream
// @Success      200
// @Router       /v1/events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	events, cancel := h.hub.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Content-Type", "text/event-stream")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	log.Debug().Int("subscribers", h.hub.Subscribers()).Msg("sse: client connected")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-ping.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
	log.Debug().Msg("sse: client disconnected")
}
