package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rubiojr/estatedesk/pkg/debounce"
	"github.com/rubiojr/estatedesk/pkg/realtime"
	"github.com/rubiojr/estatedesk/pkg/search"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsHeartbeat    = 30 * time.Second
	wsSendBuffer   = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleSearchWS runs a live search session over a websocket. Keystrokes
// arrive as "query" messages and are debounced server side; each settled
// search is answered with a "results" message. Permissions are resolved
// again for every search. Unread notification counts
// are pushed as "notifications" messages when a hub is configured.
func (s *Server) HandleSearchWS(w http.ResponseWriter, r *http.Request) {
	perms, err := s.permissionMap(r.Context())
	if err != nil {
		s.writeBackendError(w, "Permissions", err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	sessionID := uuid.NewString()
	logger := s.logger.With("session", sessionID)
	logger.Debugf("live search session opened from %s", r.RemoteAddr)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan any, wsSendBuffer)
	send := func(msg any) {
		select {
		case out <- msg:
		case <-ctx.Done():
		}
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsHeartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			case msg := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(msg); err != nil {
					logger.Debugf("write failed: %v", err)
					cancel()
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	session := search.NewSession(ctx, s.search, search.SessionOptions{
		Limit:       s.limit,
		Delay:       s.debounce,
		Permissions: s.permissionMap,
	}, func(u search.Update) {
		if u.Err != nil {
			logger.Warnf("resolving permissions: %v", u.Err)
			send(WSErrorMessage{Type: "error", Message: "could not load permissions"})
			return
		}
		if u.Cleared {
			send(WSClearedMessage{Type: "cleared", Seq: u.Seq})
			return
		}
		resp := s.searchResponse(u.Query, s.limit, u.Results)
		send(WSResultsMessage{
			Type:       "results",
			Seq:        u.Seq,
			Query:      resp.Query,
			Results:    resp.Results,
			TotalCount: resp.TotalCount,
		})
	})

	searchable := []string{}
	for _, e := range s.search.Registry().All() {
		if perms.Allowed(e.Type) {
			searchable = append(searchable, string(e.Type))
		}
	}
	send(WSInitMessage{
		Type:       "init",
		Session:    sessionID,
		Limit:      s.limit,
		DebounceMS: s.effectiveDebounce().Milliseconds(),
		Searchable: searchable,
	})

	if s.hub != nil {
		id, events := s.hub.Register()
		defer s.hub.Unregister(id)
		go forwardEvents(ctx, events, send)
	}

	defer func() {
		session.Close()
		cancel()
		<-writerDone
		_ = conn.Close()
		logger.Debugf("live search session closed")
	}()

	for {
		var msg WSClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("read failed: %v", err)
			}
			return
		}
		switch strings.ToLower(msg.Type) {
		case "query":
			session.Type(msg.Q)
		case "submit":
			session.Submit()
		case "clear":
			session.Clear()
		case "ping":
			send(WSPongMessage{Type: "pong", Time: time.Now().UTC()})
		default:
			send(WSErrorMessage{Type: "error", Message: "unknown message type " + msg.Type})
		}
	}
}

func (s *Server) effectiveDebounce() time.Duration {
	if s.debounce > 0 {
		return s.debounce
	}
	return debounce.DefaultDelay
}

func forwardEvents(ctx context.Context, events <-chan realtime.Event, send func(any)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type == realtime.TypeNotifications && ev.Notifications != nil {
				send(WSNotificationsMessage{
					Type:   "notifications",
					Unread: ev.Notifications.Unread,
					Total:  ev.Notifications.Total,
				})
			}
		}
	}
}
