package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bridged-io/bridged/pkg/envelope"
)

// client is a thin WebSocket wrapper around one bridged connection: it
// frames outgoing command/query/subscribe requests and hands every
// incoming frame to a caller-supplied sink for display.
type client struct {
	conn *websocket.Conn
}

func dial(addr string) (*client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &client{conn: conn}, nil
}

func (c *client) close() {
	_ = c.conn.Close()
}

// listen reads frames until the connection closes, handing each decoded
// frame to sink. Runs until the connection is closed; meant to be started
// in its own goroutine.
func (c *client) listen(sink func(tag string, raw json.RawMessage)) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			sink("disconnected", nil)
			return
		}
		var frame map[string]json.RawMessage
		if err := json.Unmarshal(data, &frame); err != nil {
			sink("malformed", data)
			continue
		}
		for tag, raw := range frame {
			sink(tag, raw)
		}
	}
}

func (c *client) sendCommand(cmd envelope.Command) error {
	return c.send(struct {
		Command envelope.Command `json:"command"`
	}{cmd})
}

func (c *client) sendQuery(q envelope.Query) error {
	return c.send(struct {
		Query envelope.Query `json:"query"`
	}{q})
}

func (c *client) sendSubscribe(sub envelope.Subscribe) error {
	return c.send(struct {
		Subscribe envelope.Subscribe `json:"subscribe"`
	}{sub})
}

func (c *client) sendUnsubscribe(sub envelope.Subscribe) error {
	return c.send(struct {
		Unsubscribe envelope.Subscribe `json:"unsubscribe"`
	}{sub})
}

func (c *client) send(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}
