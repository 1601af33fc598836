package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/mwalters/cuplog/internal/store"
)

func startedServer(t *testing.T) *Server {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.InitSchema(); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}

	s := NewServer(st, &Config{
		Addr:   "127.0.0.1:0",
		Owner:  "u",
		Logger: log.New(io.Discard, "", 0),
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func TestStartStop(t *testing.T) {
	s := startedServer(t)

	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestFeedBroadcastsEntryCreated(t *testing.T) {
	s := startedServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+s.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Wait for the server to register the client before triggering a
	// broadcast.
	deadline := time.Now().Add(2 * time.Second)
	for s.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("feed client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	body := `{"occurred_at":"2023-04-20T12:00:00Z","amount":200,"unit":"ml"}`
	resp, err := http.Post("http://"+s.Addr()+"/api/entries", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("feed read failed: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to parse feed message: %v", err)
	}
	if msg.Type != MessageTypeEntryCreated {
		t.Errorf("type = %s, want %s", msg.Type, MessageTypeEntryCreated)
	}

	var event EntryEventData
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		t.Fatalf("failed to parse event data: %v", err)
	}
	if event.ID != "2023-04-20T12:00:00Z" {
		t.Errorf("event id = %s, want the entry timestamp", event.ID)
	}
}
