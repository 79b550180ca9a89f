package realtime

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades dashboard connections and attaches them to the hub.
// Clients only receive; anything they send is ignored.
type Handler struct {
	hub *Hub
}

// NewHandler returns an http.Handler serving the push channel of hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeHTTP upgrades the request and blocks until the client disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.hub.Register(client)
	h.hub.log.Info("client connected", "remote", conn.RemoteAddr().String())
	go client.writePump()

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		h.hub.log.Info("client disconnected", "remote", c.conn.RemoteAddr().String())
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.hub.log.Warn("websocket read failed", "err", err)
			}
			return
		}
	}
}
