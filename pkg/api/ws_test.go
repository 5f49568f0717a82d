package api

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsDial(t *testing.T, env *testEnv) (*websocket.Conn, map[string]any) {
	t.Helper()
	u, _ := url.Parse(env.server.URL)
	u.Scheme = "ws"
	u.Path = "/api/search/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	msg := readMessage(t, conn)
	if msg["type"] != "init" {
		t.Fatalf("expected init message, got %v", msg["type"])
	}
	return conn, msg
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return msg
}

// readUntil skips messages of other types (e.g. notification pushes).
func readUntil(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		msg := readMessage(t, conn)
		if msg["type"] == typ {
			return msg
		}
	}
	t.Fatalf("no %s message received", typ)
	return nil
}

func send(t *testing.T, conn *websocket.Conn, msg WSClientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWebSocketInit(t *testing.T) {
	env := newTestEnv(t, []string{"view_agents", "view_visits"})
	_, initMsg := wsDial(t, env)

	if initMsg["session"] == "" || initMsg["limit"].(float64) != 5 {
		t.Fatalf("unexpected init %v", initMsg)
	}
	if initMsg["debounce_ms"].(float64) != 100 {
		t.Fatalf("unexpected debounce %v", initMsg["debounce_ms"])
	}
	searchable := initMsg["searchable"].([]any)
	if len(searchable) != 2 || searchable[0] != "agents" || searchable[1] != "visits" {
		t.Fatalf("unexpected searchable %v", searchable)
	}
}

func TestWebSocketDebouncedSearch(t *testing.T) {
	env := newTestEnv(t, []string{"view_agents"})
	conn, _ := wsDial(t, env)

	send(t, conn, WSClientMessage{Type: "query", Q: "s"})
	send(t, conn, WSClientMessage{Type: "query", Q: "sm"})
	send(t, conn, WSClientMessage{Type: "query", Q: "smith"})

	msg := readUntil(t, conn, "results")
	if msg["query"] != "smith" {
		t.Fatalf("expected results for smith, got %v", msg["query"])
	}
	results := msg["results"].(map[string]any)
	if len(results["agents"].([]any)) != 1 {
		t.Fatalf("unexpected results %v", results)
	}
	if env.fetcher.count() != 1 {
		t.Fatalf("typing burst should trigger one fetch, got %d (%v)", env.fetcher.count(), env.fetcher.calls)
	}
}

func TestWebSocketClear(t *testing.T) {
	env := newTestEnv(t, []string{"view_agents"})
	conn, _ := wsDial(t, env)

	send(t, conn, WSClientMessage{Type: "query", Q: "smith"})
	send(t, conn, WSClientMessage{Type: "clear"})

	readUntil(t, conn, "cleared")
	time.Sleep(250 * time.Millisecond)
	if env.fetcher.count() != 0 {
		t.Fatalf("cleared query must not be searched, got %d calls", env.fetcher.count())
	}
}

func TestWebSocketNotificationPush(t *testing.T) {
	env := newTestEnv(t, []string{"view_agents"})
	conn, _ := wsDial(t, env)

	// Wait until the session has subscribed.
	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Size() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	env.hub.PublishUnread(4, 9)

	msg := readUntil(t, conn, "notifications")
	if msg["unread"].(float64) != 4 || msg["total"].(float64) != 9 {
		t.Fatalf("unexpected notification message %v", msg)
	}
}

func TestWebSocketUnknownMessage(t *testing.T) {
	env := newTestEnv(t, []string{"view_agents"})
	conn, _ := wsDial(t, env)

	send(t, conn, WSClientMessage{Type: "bogus"})
	msg := readUntil(t, conn, "error")
	if msg["message"] == "" {
		t.Fatalf("expected error message")
	}

	send(t, conn, WSClientMessage{Type: "ping"})
	readUntil(t, conn, "pong")
}

func TestWebSocketRevokedPermissionsApplyToOpenSession(t *testing.T) {
	env := newTestEnv(t, []string{"view_admins"})
	conn, initMsg := wsDial(t, env)
	if searchable := initMsg["searchable"].([]any); len(searchable) != 1 || searchable[0] != "admins" {
		t.Fatalf("unexpected searchable %v", searchable)
	}

	env.accounts.SetStatic([]string{})

	send(t, conn, WSClientMessage{Type: "query", Q: "smith"})
	send(t, conn, WSClientMessage{Type: "submit"})

	msg := readUntil(t, conn, "results")
	results := msg["results"].(map[string]any)
	if admins, _ := results["admins"].([]any); len(admins) != 0 {
		t.Fatalf("revoked entity type returned results: %v", admins)
	}
	if env.fetcher.count() != 0 {
		t.Fatalf("revoked entity type was fetched: %v", env.fetcher.calls)
	}
}

func TestWebSocketClearNotBlockedBySubmittedSearch(t *testing.T) {
	env := newTestEnv(t, []string{"view_agents"})
	hold := make(chan struct{})
	env.fetcher.mu.Lock()
	env.fetcher.hold = hold
	env.fetcher.mu.Unlock()
	t.Cleanup(func() { close(hold) })

	conn, _ := wsDial(t, env)

	send(t, conn, WSClientMessage{Type: "query", Q: "slow"})
	send(t, conn, WSClientMessage{Type: "submit"})

	deadline := time.Now().Add(2 * time.Second)
	for env.fetcher.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if env.fetcher.count() == 0 {
		t.Fatalf("submitted search never started")
	}

	start := time.Now()
	send(t, conn, WSClientMessage{Type: "clear"})
	for {
		msg := readMessage(t, conn)
		switch msg["type"] {
		case "notifications":
			continue
		case "cleared":
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Fatalf("clear waited %s for the search in flight", elapsed)
			}
			return
		default:
			t.Fatalf("expected cleared before anything else, got %v", msg["type"])
		}
	}
}
