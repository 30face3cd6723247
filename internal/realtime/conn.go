package realtime

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"classtrack/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Browser clients connect from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeConn upgrades the request for an already-authenticated user and
// pumps events until either side disconnects. One client's disconnect never
// touches the others; its room membership dies with the connection.
func ServeConn(hub *Hub, u model.User, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed for %s: %v", u.ID, err)
		return
	}
	client := NewClient(u)
	hub.Register(client)

	go writePump(hub, client, conn)
	readPump(hub, client, conn)
}

// readPump drains inbound frames to keep pong handling alive. Clients have
// nothing to say to the server; any read error ends the connection.
func readPump(hub *Hub, c *Client, conn *websocket.Conn) {
	defer func() {
		hub.Unregister(c)
		conn.Close()
	}()
	conn.SetReadLimit(1024)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(hub *Hub, c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		hub.Unregister(c)
		conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
