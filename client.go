/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const maxMessageSize = 4096

// Messages coming from clients
type ClientMessage struct {
	Type       string          `json:"type"`                  // "join", "update_settings", "start_game"
	Room       string          `json:"room"`                  // all
	Name       string          `json:"name,omitempty"`        // join
	Settings   *SettingsUpdate `json:"settings,omitempty"`    // update_settings
	CustomPair []string        `json:"custom_pair,omitempty"` // start_game
}

// RoomUpdateMessage carries the full room state to every member.
type RoomUpdateMessage struct {
	Type string   `json:"type"` // "room_update"
	Room Snapshot `json:"room"`
}

// ErrorMessage is sent only to the connection whose request failed.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// SessionInfoMessage is sent immediately on connect so the page knows which
// player entry is its own and which topics the host can pick from.
type SessionInfoMessage struct {
	Type   string   `json:"type"` // "session_info"
	ID     string   `json:"id"`
	Topics []string `json:"topics"`
}

// Client is one live websocket. Its id is the player id in any room it joins.
type Client struct {
	id   string
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan any
	closed bool
}

func newClient(conn *websocket.Conn, buffer int) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan any, buffer),
	}
}

// push queues msg without blocking. A client whose queue is full is closed;
// dropped is true only for the call that closed it, and its read loop then
// runs the disconnect path.
func (c *Client) push(msg any) (queued, dropped bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, false
	}

	select {
	case c.send <- msg:
		return true, false
	default:
		c.closed = true
		close(c.send)

		return false, true
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump(l *Lobby, pingInterval time.Duration) {
	defer func() {
		l.Disconnect(c.id)
		_ = c.conn.Close()
	}()

	c.extendDeadline(pingInterval)
	c.conn.SetPongHandler(func(string) error {
		c.extendDeadline(pingInterval)

		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.log.Infof("SOCKET: Dropping %s: %v", c.id, err)
			}

			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			l.log.Infof("SOCKET: Ignoring malformed frame from %s: %v", c.id, err)

			continue
		}

		l.route(c, msg)
	}
}

func (c *Client) extendDeadline(pingInterval time.Duration) {
	if pingInterval <= 0 {
		_ = c.conn.SetReadDeadline(time.Time{})

		return
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * pingInterval))
}

func (c *Client) writePump(pingInterval time.Duration) {
	defer c.conn.Close()

	var ping <-chan time.Time
	if pingInterval > 0 {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		ping = ticker.C
	}

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(timeout))

				return
			}

			_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout)); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, l *Lobby) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			l.log.Warnf("SOCKET: Upgrade failed for %s: %v", realIP(r), err)

			return
		}

		conn.SetReadLimit(maxMessageSize)

		client := newClient(conn, cfg.sendBuffer)
		l.Connect(client)

		l.log.Infof("SOCKET: %s connected from %s", client.id, realIP(r))

		client.push(SessionInfoMessage{
			Type:   "session_info",
			ID:     client.id,
			Topics: topicKeys(),
		})

		go client.writePump(cfg.pingInterval)
		client.readPump(l, cfg.pingInterval)
	}
}
