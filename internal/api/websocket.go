package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/turnoflow/scheduling/internal/booking"
	"github.com/turnoflow/scheduling/internal/notify"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Events carry no business data, only invalidation hints, so any origin
	// may listen; authorization happens on the read endpoints they refresh.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventStreamHandler bridges the clinic event channel to websocket clients.
// Each connection holds its own subscription; clients treat every message as
// "refresh availability for this date" and re-resolve through the API.
type EventStreamHandler struct {
	subscriber notify.Subscriber
	log        *zap.Logger
}

func NewEventStreamHandler(subscriber notify.Subscriber, log *zap.Logger) *EventStreamHandler {
	return &EventStreamHandler{subscriber: subscriber, log: log}
}

func (h *EventStreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	clinicID, err := uuid.Parse(chi.URLParam(r, "clinicID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "clinicID must be a valid UUID")
		return
	}

	// The subscription must outlive this handler: net/http cancels r.Context()
	// as soon as Serve returns, while the pumps keep the connection open. The
	// connection-scoped context dies with the write pump instead.
	ctx, cancel := context.WithCancel(context.Background())

	events, unsubscribe, err := h.subscriber.Subscribe(ctx, clinicID)
	if err != nil {
		cancel()
		writeError(w, http.StatusServiceUnavailable, "transient_error", "event stream unavailable")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		unsubscribe()
		cancel()
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cleanup := func() {
		unsubscribe()
		cancel()
	}
	go h.writePump(conn, events, cleanup, clinicID)
	go h.readPump(conn)
}

// writePump forwards events until the subscription or connection dies.
func (h *EventStreamHandler) writePump(conn *websocket.Conn, events <-chan booking.Event, cleanup func(), clinicID uuid.UUID) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cleanup()
		_ = conn.Close()
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Debug("websocket write failed, dropping subscriber",
					zap.String("clinic_id", clinicID.String()),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close messages are processed.
func (h *EventStreamHandler) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			_ = conn.Close()
			return
		}
	}
}
