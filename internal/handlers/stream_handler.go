package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/negotiation"
	"dev.accord.negotiation/internal/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamHandler pushes negotiation events to websocket subscribers as rounds
// are stepped.
type StreamHandler struct {
	service  *services.NegotiationService
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

// NewStreamHandler creates the handler.
func NewStreamHandler(service *services.NegotiationService, log *logrus.Logger) *StreamHandler {
	if log == nil {
		log = logrus.New()
	}
	return &StreamHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
}

// RegisterRoutes attaches the stream endpoint to the router group.
func (h *StreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/negotiations/:id/stream", h.Stream)
}

// Stream handles GET /negotiations/:id/stream. Each event recorded after the
// subscription is delivered as one JSON message, in order.
func (h *StreamHandler) Stream(c *gin.Context) {
	id := c.Param("id")
	events, cancel, err := h.service.Subscribe(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		cancel()
		h.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	go h.pump(id, conn, events, cancel)
}

// pump writes events until the subscription or the connection dies. The read
// side only services control frames.
func (h *StreamHandler) pump(id string, conn *websocket.Conn, events <-chan negotiation.Event, cancel func()) {
	defer func() {
		cancel()
		if err := conn.Close(); err != nil {
			h.log.WithError(err).Debug("Websocket close")
		}
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		// Drain control frames; any read error ends the connection.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.log.WithError(err).WithField("negotiation", id).Debug("Websocket write failed")
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
