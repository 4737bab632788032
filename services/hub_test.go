package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anonq/models"

	"github.com/gorilla/websocket"
)

func startFeedServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.RegisterClient(conn, strings.TrimPrefix(r.URL.Path, "/"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialFeed(t *testing.T, srv *httptest.Server, channel string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + channel
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", channel, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, channel string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount(channel) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d %s clients", n, channel)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestHub_RoutesEventsByChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := startFeedServer(t, hub)

	public := dialFeed(t, srv, ChannelPublic)
	admin := dialFeed(t, srv, ChannelAdmin)
	waitForClients(t, hub, ChannelPublic, 1)
	waitForClients(t, hub, ChannelAdmin, 1)

	hub.QuestionSubmitted(models.Question{Content: "secret question"})
	hub.QuestionDeleted("abc")

	if msg := readMessage(t, admin); msg.Type != EventQuestionSubmitted {
		t.Fatalf("admin expected %s first, got %s", EventQuestionSubmitted, msg.Type)
	}
	if msg := readMessage(t, admin); msg.Type != EventQuestionDeleted {
		t.Fatalf("admin expected %s, got %s", EventQuestionDeleted, msg.Type)
	}

	// The public feed never sees unanswered questions, so its first event is the delete.
	msg := readMessage(t, public)
	if msg.Type != EventQuestionDeleted {
		t.Fatalf("public expected %s, got %s", EventQuestionDeleted, msg.Type)
	}
	payload, _ := json.Marshal(msg.Payload)
	if string(payload) != `{"id":"abc"}` {
		t.Fatalf("unexpected delete payload %s", payload)
	}
}

func TestHub_PingPongAndUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := startFeedServer(t, hub)

	conn := dialFeed(t, srv, ChannelPublic)
	waitForClients(t, hub, ChannelPublic, 1)

	if err := conn.WriteJSON(Message{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != "pong" {
		t.Fatalf("expected pong, got %s", msg.Type)
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount(ChannelPublic) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client was not unregistered after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
