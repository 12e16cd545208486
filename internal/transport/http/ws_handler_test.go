package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"trivia-stats-service/internal/app"
	"trivia-stats-service/internal/domain"
	"trivia-stats-service/internal/infra/memory"
)

func TestRankingStreamDeliversSnapshot(t *testing.T) {
	store := memory.NewPlayerStore()
	seedPlayer(t, store, domain.PlayerRecord{ID: "p1", DisplayName: "Alice", GamesWon: 3})

	feed := app.NewRankingFeed(app.NewRankingService(store), 10, 50*time.Millisecond)
	wsHandler := NewWSHandler(feed)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/ranking", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/ranking"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var msg struct {
		Type    string                `json:"type"`
		Payload []domain.RankingEntry `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "ranking" {
		t.Fatalf("expected ranking message, got %s", msg.Type)
	}
	if len(msg.Payload) != 1 || msg.Payload[0].DisplayName != "Alice" {
		t.Fatalf("unexpected snapshot: %+v", msg.Payload)
	}
}
