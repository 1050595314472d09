package net

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

var dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}

// Connect dials the server and starts the read and dispatch loops.
// Returns an error only when the initial dial fails; later transport
// failures surface through OnStatus and the automatic retry policy,
// never as errors into caller code.
func (c *SyncClient) Connect() error {
	c.setState(StateConnecting)
	conn, _, err := dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("connect %s: %w", c.cfg.URL, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.setState(StateConnected)
	c.runOnce.Do(func() { go c.run() })
	go c.readPump(conn)
	return nil
}

// Close shuts the client down. Safe to call more than once.
func (c *SyncClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		c.setState(StateDisconnected)
	})
}

// readPump decodes frames off one connection into the inbound queue
// until the connection dies, then hands over to the reconnect loop.
func (c *SyncClient) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			log.Printf("[sync] connection lost: %v", err)
			c.reconnect()
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("[sync] drop unparseable frame: %v", err)
			continue
		}
		c.enqueue(env)
	}
}

// reconnect retries the dial a bounded number of times with a fixed
// backoff. On success it re-emits the join intent for the last-joined
// board so the server sends a fresh snapshot; on exhaustion the client
// lands in the error state.
func (c *SyncClient) reconnect() {
	c.setState(StateReconnecting)
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(c.cfg.Backoff):
		}
		conn, _, err := dialer.Dial(c.cfg.URL, nil)
		if err != nil {
			log.Printf("[sync] reconnect %d/%d failed: %v", attempt, c.cfg.MaxRetries, err)
			continue
		}
		c.mu.Lock()
		c.conn = conn
		boardID := c.boardID
		c.mu.Unlock()
		c.setState(StateConnected)
		log.Printf("[sync] reconnected after %d attempt(s)", attempt)
		if boardID != "" {
			c.send(EventJoinBoard, JoinBoardEvent{
				BoardID:     boardID,
				UserID:      c.cfg.UserID,
				DisplayName: c.cfg.DisplayName,
			})
		}
		go c.readPump(conn)
		return
	}
	log.Printf("[sync] giving up after %d reconnect attempts", c.cfg.MaxRetries)
	c.setState(StateError)
}
