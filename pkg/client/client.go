package client

import (
	"encoding/json"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/msg"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/queue"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Used when the configured ping period is not positive.
	defaultPingPeriod = 30 * time.Second
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	id string
	ip string

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages. Closed by TryClose.
	sendWsMessage chan *msg.WsMessage
	closeOnce     sync.Once

	// Ticket this client follows, NoTicket for status only. Owned by
	// the hub goroutine.
	watching queue.Ticket

	pingPeriod time.Duration

	hub *Hub
}

func NewClient(conn *websocket.Conn, hub *Hub, ip string, watching queue.Ticket, pingPeriod time.Duration) *Client {
	if pingPeriod <= 0 {
		pingPeriod = defaultPingPeriod
	}

	return &Client{
		id:            uuid.NewString(),
		ip:            ip,
		conn:          conn,
		sendWsMessage: make(chan *msg.WsMessage, 64),
		watching:      watching,
		pingPeriod:    pingPeriod,
		hub:           hub,
	}
}

// Run registers the client and starts its pumps. Allow collection of
// memory referenced by the caller by doing all work in new goroutines.
func (c *Client) Run() {
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
}

// TryClose makes writePump send a close frame and exit. Safe to call
// more than once.
func (c *Client) TryClose() {
	c.closeOnce.Do(func() {
		close(c.sendWsMessage)
	})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	pongWait := c.pingPeriod * 5 / 2
	c.conn.SetReadLimit(maxMessageSize)

	// Heartbeat. Close connection if client does not respond to ping for too long.
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warnf("id[%v] read err %v", c.id, err)
			}
			return
		}

		wsMessage := &msg.WsMessage{}
		if err := json.Unmarshal(message, wsMessage); err != nil {
			c.hub.logger.Errorf("id[%v] cannot unmarshal ws message %v", c.id, err)
			continue
		}

		c.hub.wsRequest <- &ClientRequest{
			client:    c,
			wsMessage: wsMessage,
		}
	}
}

func (c *Client) writePump() {
	pingTicker := time.NewTicker(c.pingPeriod)

	defer func() {
		pingTicker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case wsMessage, ok := <-c.sendWsMessage:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(wsMessage); err != nil {
				c.hub.logger.Errorf("id[%v] WriteJSON err %v", c.id, err)
				return
			}

		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.logger.Debugf("id[%v] ping err %v", c.id, err)
				return
			}
		}
	}
}
