package game

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The game server has no cross-origin policy of its own.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsClient adapts one websocket connection to the Sender interface.
// Writes are funneled through a single pump goroutine, since gorilla
// connections allow only one concurrent writer.
type wsClient struct {
	conn *websocket.Conn
	out  chan interface{}
	once sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	c := &wsClient{conn: conn, out: make(chan interface{}, sendBufferSize)}
	go c.writePump()
	return c
}

// Send queues a message for delivery. A client that cannot drain its
// buffer loses the message; snapshots arrive sixty times a second, so
// dropping one is harmless.
func (c *wsClient) Send(v interface{}) error {
	select {
	case c.out <- v:
		return nil
	default:
		return nil
	}
}

func (c *wsClient) writePump() {
	for msg := range c.out {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.out)
		c.conn.Close()
	})
}

// ServeWS is the websocket endpoint for the paddle game. One connection
// is one participant; the read loop dispatches their messages to the
// room they are seated in.
func ServeWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("game: upgrade failed: %v", err)
			return
		}

		client := newWSClient(conn)
		var room *Room
		var playerNumber int

		defer func() {
			if room != nil {
				if empty := room.RemovePlayer(client); empty {
					hub.RemoveRoom(room.ID)
				}
			}
			client.close()
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			msg, err := ParseInbound(data)
			if err != nil {
				// Real-time transport; drop garbage, keep the match alive.
				log.Printf("game: dropping message: %v", err)
				continue
			}

			switch m := msg.(type) {
			case JoinGame:
				if room != nil {
					continue
				}
				candidate := hub.FindOrCreateRoom()
				playerID := m.PlayerID
				if playerID == "" {
					playerID = uuid.NewString()
				}
				number, err := candidate.AddPlayer(client, playerID, m.PlayerName)
				if err != nil {
					client.Send(newError("room is full"))
					continue
				}
				room = candidate
				playerNumber = number
				log.Printf("game: player %s joined %s as player %d", playerID, room.ID, number)

			case StartGame:
				if room == nil {
					continue
				}
				if err := room.Start(); err != nil {
					log.Printf("game: start rejected in %s: %v", room.ID, err)
				}

			case PaddleMove:
				if room == nil || playerNumber == 0 {
					continue
				}
				room.UpdatePaddle(playerNumber, m.Y)

			case Ping:
				client.Send(newPong(m.Timestamp))
			}
		}
	}
}
