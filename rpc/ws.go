package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"pharos/core/events"
	"pharos/core/types"
)

const (
	wsWriteTimeout     = 10 * time.Second
	wsSubscriberBuffer = 128
)

// eventPayload is the wire form of a streamed protocol event.
type eventPayload struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.node == nil {
		http.Error(w, "node unavailable", http.StatusServiceUnavailable)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	if err := s.streamEvents(r.Context(), conn); err != nil {
		if status := websocket.CloseStatus(err); status == -1 {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn) error {
	updates, cancel := s.node.Subscribe(wsSubscriberBuffer)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeEvent(ctx, conn, evt); err != nil {
				return err
			}
		}
	}
}

// eventCarrier is satisfied by every concrete event payload; it exposes the
// attribute map broadcast to subscribers.
type eventCarrier interface {
	Event() *types.Event
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt events.Event) error {
	payload := eventPayload{Type: evt.EventType()}
	if carrier, ok := evt.(eventCarrier); ok {
		if detail := carrier.Event(); detail != nil {
			payload.Attributes = detail.Attributes
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
