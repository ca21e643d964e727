package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	maxMessageSize = 512
	sendBufferSize = 32
)

// client is one participant connection: the socket, a buffered outbound
// queue drained by a single write pump, and the ephemeral identifier the
// participant is known by for the life of the connection.
type client struct {
	id   string
	conn *websocket.Conn

	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// enqueue - hands a marshaled event to the write pump. Returns false when
// the connection is gone or the queue is full; the event is dropped either
// way, delivery is fire-and-forget.
func (that *client) enqueue(data []byte) bool {
	select {
	case <-that.done:
		return false
	default:
	}

	select {
	case that.send <- data:
		return true
	default:
		return false
	}
}

// close - stops the write pump. Safe to call more than once; the send
// channel itself is never closed, so a late enqueue cannot panic.
func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// writePump - serializes all writes to the socket and keeps the
// connection alive with pings.
func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case <-that.done:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = that.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
