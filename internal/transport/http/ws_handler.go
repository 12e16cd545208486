package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"trivia-stats-service/internal/app"
	"trivia-stats-service/internal/domain"
)

// WSHandler streams leaderboard snapshots to websocket clients.
type WSHandler struct {
	feed     *app.RankingFeed
	upgrader websocket.Upgrader
}

func NewWSHandler(feed *app.RankingFeed) *WSHandler {
	return &WSHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type rankingMessage struct {
	Type    string               `json:"type"`
	Payload []domain.RankingEntry `json:"payload"`
}

// ServeWS upgrades the request and forwards feed snapshots until the client
// disconnects. The first message is the current board.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.feed.Subscribe(r.Context())
	if err != nil {
		log.Printf("ranking subscribe failed: %v", err)
		return
	}
	defer cancel()

	// Drain the read side so client close frames are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(rankingMessage{Type: "ranking", Payload: snapshot}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}
