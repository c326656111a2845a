package capture

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/rf/rftest"
)

func waitClients(t *testing.T, l *Live, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for l.Clients() != want {
		if time.Now().After(deadline) {
			t.Fatalf("Clients() = %d, want %d", l.Clients(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLiveStreamsRecords(t *testing.T) {
	live := NewLive()
	srv := httptest.NewServer(live)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	waitClients(t, live, 1)

	tr := rftest.New()
	tr.PushHex(dateRequest)
	tr.PushHex(dateReply)
	s := connect.NewSniffer(tr, networkID)
	s.OnObservation = live.Publish
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i, want := range []string{"request", "reply"} {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if rec.Num != i+1 || rec.Direction != want || rec.Signature != "a02b0004" {
			t.Errorf("record %d = %+v, want %s of a02b0004", i+1, rec, want)
		}
	}
}

func TestLiveCloseDisconnects(t *testing.T) {
	live := NewLive()
	srv := httptest.NewServer(live)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	waitClients(t, live, 1)

	live.Close()
	waitClients(t, live, 0)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("ReadMessage() succeeded after Close()")
	}
}
