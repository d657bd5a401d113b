package feed

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"animehub/internal/release"
)

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	r.POST("/announce", AnnounceHandler(hub))
	r.GET("/stats", StatsHandler(hub))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestAnnounceBroadcastsToSubscribers(t *testing.T) {
	srv, _ := newTestServer(t)

	wsURL := strings.Replace(srv.URL, "http://", "ws://", 1) + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	// First frame is the welcome message.
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err != nil {
		t.Fatalf("read welcome: %v", err)
	}

	body := `{"title":"One Piece","variant":{"episode":{"number":1100}},"downloads":[{"resolution":1080,"torrent":"https://example.test/t","file_name":"op-1100.mkv"}]}`
	resp, err := http.Post(srv.URL+"/announce", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var ann release.Announcement
	if err := json.Unmarshal(data, &ann); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ann.Title != "One Piece" || ann.Variant.Episode.Number != 1100 {
		t.Fatalf("got %+v", ann)
	}
	if ann.CreatedAt.IsZero() {
		t.Fatal("created_at was not stamped")
	}
}

func TestAnnounceRejectsMissingTitle(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/announce", "application/json", bytes.NewBufferString(`{"variant":{"movie":{}}}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStatsCountsClients(t *testing.T) {
	srv, hub := newTestServer(t)

	wsURL := strings.Replace(srv.URL, "http://", "ws://", 1) + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Stats().Clients != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want 1", hub.Stats().Clients)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
