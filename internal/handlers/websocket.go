package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"fundgate/internal/store"
	ws "fundgate/internal/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	Store *store.Store
	Hub   *ws.Hub
}

func NewWebSocketHandler(st *store.Store, hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{Store: st, Hub: hub}
}

// ServeWs upgrades the owner's alert widget connection, authenticated by
// the widget secret token.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	secretToken := c.Param("secretToken")

	profile, err := h.Store.GetProfileByWidgetToken(c.Request.Context(), secretToken)
	if err != nil {
		log.Println("Invalid WebSocket secret token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("Failed to upgrade connection:", err)
		return
	}

	client := &ws.Client{
		Hub:     h.Hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		OwnerID: profile.UserID,
	}

	client.Hub.Register <- client

	go h.writePump(client)
	go h.readPump(client)
}

func (h *WebSocketHandler) writePump(client *ws.Client) {
	defer client.Conn.Close()

	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}

	client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (h *WebSocketHandler) readPump(client *ws.Client) {
	defer func() {
		client.Hub.Unregister <- client
		client.Conn.Close()
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("readPump error: %v", err)
			}
			break
		}
	}
}
