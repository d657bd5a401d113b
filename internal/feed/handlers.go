package feed

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"animehub/internal/release"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // OK for demo; restrict in production
	},
}

func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		hub.Add(ws)
		log.Println("[feed] client connected")

		_ = ws.WriteMessage(
			websocket.TextMessage,
			[]byte(`{"type":"welcome","transport":"websocket"}`),
		)

		// Keep connection alive (ignore incoming messages)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Remove(ws)
		log.Println("[feed] client disconnected")
	}
}

// AnnounceHandler accepts a release announcement and broadcasts it to all
// stream subscribers.
func AnnounceHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ann release.Announcement
		if err := c.ShouldBindJSON(&ann); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid announcement: " + err.Error()})
			return
		}
		if ann.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
			return
		}

		now := time.Now().UTC()
		if ann.CreatedAt.IsZero() {
			ann.CreatedAt = now
		}
		if ann.UpdatedAt.IsZero() {
			ann.UpdatedAt = now
		}

		hub.Broadcast(ann)
		c.JSON(http.StatusAccepted, gin.H{
			"status": "announced",
			"title":  ann.Title,
		})
	}
}

func StatsHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, hub.Stats())
	}
}
