package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereayou/scrimhub/internal/voice"
)

// WebSocketHandler управляет WebSocket соединениями
type WebSocketHandler struct {
	hub      *voice.Hub
	provider *voice.Provider
	upgrader websocket.Upgrader
}

// NewWebSocketHandler создает новый WebSocket handler
func NewWebSocketHandler(hub *voice.Hub, provider *voice.Provider) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		provider: provider,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Проверить origin в prod
				return true
			},
		},
	}
}

// HandleWebSocket обрабатывает WebSocket соединения
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	actor := currentActor(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := voice.NewClient(h.hub, conn, actor.ID)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.provider)
}
