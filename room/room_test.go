package room_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nikku45/roomrelay/room"
)

type wireFrame struct {
	Type     string `json:"type"`
	Topic    string `json:"topic,omitempty"`
	Data     []byte `json:"data,omitempty"`
	Identity string `json:"identity,omitempty"`
	Seq      uint64 `json:"seq,omitempty"`
	Reliable bool   `json:"reliable,omitempty"`
}

// gateway is a minimal in-test room service. The serve callback gets the
// upgraded server side of each connection.
func gateway(t *testing.T, serve func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); !strings.HasPrefix(got, "Bearer ") {
			t.Errorf("Expected bearer token, got %q", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		serve(conn)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func connect(t *testing.T, c *room.Conn, srv *httptest.Server) {
	t.Helper()
	if err := c.Connect(context.Background(), wsURL(srv), "test-token"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
}

func sendFrame(t *testing.T, conn *websocket.Conn, f wireFrame) {
	t.Helper()
	data, _ := json.Marshal(f)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Errorf("Server write failed: %v", err)
	}
}

// readFrame runs on the server goroutine, so failures are reported with
// Errorf and a zero frame rather than FailNow.
func readFrame(t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Errorf("Server read failed: %v", err)
		return wireFrame{}
	}
	var f wireFrame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Errorf("Server decode failed: %v", err)
	}
	return f
}

func TestConnect_HandshakeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusForbidden)
	}))
	defer srv.Close()

	c := room.New()
	err := c.Connect(context.Background(), wsURL(srv), "bad")
	if !errors.Is(err, room.ErrConnect) {
		t.Fatalf("Expected ErrConnect, got %v", err)
	}
	if c.State() != room.StateDisconnected {
		t.Errorf("Expected disconnected state, got %v", c.State())
	}
}

func TestInboundDispatchOrder(t *testing.T) {
	srv := gateway(t, func(conn *websocket.Conn) {
		for i := byte('a'); i <= 'c'; i++ {
			sendFrame(t, conn, wireFrame{Type: "data", Topic: "chat", Data: []byte{i}})
		}
	})
	defer srv.Close()

	received := make(chan string, 3)
	c := room.New()
	c.OnData(func(topic string, payload []byte) {
		received <- topic + ":" + string(payload)
	})
	connect(t, c, srv)
	defer c.Close()

	for _, want := range []string{"chat:a", "chat:b", "chat:c"} {
		select {
		case got := <-received:
			if got != want {
				t.Fatalf("Expected %q, got %q", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for %q", want)
		}
	}
}

func TestParticipantJoined(t *testing.T) {
	srv := gateway(t, func(conn *websocket.Conn) {
		sendFrame(t, conn, wireFrame{Type: "participant_joined", Identity: "alice"})
	})
	defer srv.Close()

	joined := make(chan string, 1)
	c := room.New()
	c.OnParticipantJoined(func(identity string) {
		joined <- identity
	})
	connect(t, c, srv)
	defer c.Close()

	select {
	case id := <-joined:
		if id != "alice" {
			t.Fatalf("Expected alice, got %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for presence event")
	}
}

func TestPublish_Unreliable(t *testing.T) {
	frames := make(chan wireFrame, 1)
	srv := gateway(t, func(conn *websocket.Conn) {
		frames <- readFrame(t, conn)
	})
	defer srv.Close()

	c := room.New()
	connect(t, c, srv)
	defer c.Close()

	if err := c.Publish(context.Background(), "chat", []byte("hello"), false); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case f := <-frames:
		if f.Type != "publish" || f.Topic != "chat" || string(f.Data) != "hello" || f.Reliable {
			t.Fatalf("Unexpected frame: %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Server never received the publish")
	}
}

func TestPublish_ReliableAck(t *testing.T) {
	srv := gateway(t, func(conn *websocket.Conn) {
		f := readFrame(t, conn)
		if !f.Reliable || f.Seq == 0 {
			t.Errorf("Expected reliable frame with seq, got %+v", f)
		}
		sendFrame(t, conn, wireFrame{Type: "ack", Seq: f.Seq})
	})
	defer srv.Close()

	c := room.New()
	connect(t, c, srv)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Publish(ctx, "chat", []byte("hello"), true); err != nil {
		t.Fatalf("Reliable publish failed: %v", err)
	}
}

func TestPublish_ReliableAckTimeout(t *testing.T) {
	srv := gateway(t, func(conn *websocket.Conn) {
		readFrame(t, conn) // swallow, never ack
		time.Sleep(time.Second)
	})
	defer srv.Close()

	c := room.New()
	connect(t, c, srv)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := c.Publish(ctx, "chat", []byte("hello"), true); err == nil {
		t.Fatal("Expected timeout error for unacked publish")
	}
}

// A reliable publish issued inside a data handler must still see its
// ack: acks are resolved by the socket read loop, not the handler
// dispatch loop.
func TestPublish_InsideDataHandler(t *testing.T) {
	srv := gateway(t, func(conn *websocket.Conn) {
		sendFrame(t, conn, wireFrame{Type: "data", Topic: "chat", Data: []byte("ping")})
		f := readFrame(t, conn)
		sendFrame(t, conn, wireFrame{Type: "ack", Seq: f.Seq})
	})
	defer srv.Close()

	result := make(chan error, 1)
	c := room.New()
	c.OnData(func(topic string, payload []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		result <- c.Publish(ctx, "chat", []byte("pong"), true)
	})
	connect(t, c, srv)
	defer c.Close()

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("In-handler reliable publish failed: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Handler deadlocked on reliable publish")
	}
}

func TestConnectionDrop(t *testing.T) {
	srv := gateway(t, func(conn *websocket.Conn) {
		conn.Close()
	})
	defer srv.Close()

	c := room.New()
	connect(t, c, srv)

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after connection drop")
	}
	if c.Err() == nil {
		t.Error("Expected non-nil Err after connection drop")
	}
	if c.State() != room.StateDisconnected {
		t.Errorf("Expected disconnected state, got %v", c.State())
	}
}

func TestClose_Deliberate(t *testing.T) {
	srv := gateway(t, func(conn *websocket.Conn) {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		conn.ReadMessage() // wait for the close
	})
	defer srv.Close()

	c := room.New()
	connect(t, c, srv)

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after Close")
	}
	if err := c.Err(); err != nil {
		t.Errorf("Expected nil Err after deliberate close, got %v", err)
	}
}

func TestPublish_NotConnected(t *testing.T) {
	c := room.New()
	err := c.Publish(context.Background(), "chat", []byte("hello"), false)
	if !errors.Is(err, room.ErrNotConnected) {
		t.Fatalf("Expected ErrNotConnected, got %v", err)
	}
}
