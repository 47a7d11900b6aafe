package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/bridged-io/bridged/pkg/envelope"
)

// echoServer upgrades every connection and echoes back whatever text frame
// it receives, so client-side wire framing can be verified against the
// bridge's own decoder without spinning up a full dispatcher.Server.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
}

func dialTest(t *testing.T, srv *httptest.Server) *client {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, err := dial(wsURL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return c
}

func TestSendCommandRoundTripsThroughEnvelopeDecoder(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()
	c := dialTest(t, srv)
	defer c.close()

	cmd := envelope.Command{Device: "dev-1", Action: envelope.ActionConnect, ID: "req-1"}
	if err := c.sendCommand(cmd); err != nil {
		t.Fatalf("sendCommand: %v", err)
	}

	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		t.Fatalf("read echo: %v", err)
	}

	in, err := envelope.DecodeInbound(raw)
	if err != nil {
		t.Fatalf("DecodeInbound: %v", err)
	}
	if in.Tag != "command" || in.Command == nil {
		t.Fatalf("expected command tag, got %+v", in)
	}
	if in.Command.Device != "dev-1" || in.Command.Action != envelope.ActionConnect || in.Command.ID != "req-1" {
		t.Errorf("unexpected command: %+v", in.Command)
	}
}

func TestSendQueryRoundTripsThroughEnvelopeDecoder(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()
	c := dialTest(t, srv)
	defer c.close()

	if err := c.sendQuery(envelope.Query{Target: envelope.TargetDevices, ID: "q-1"}); err != nil {
		t.Fatalf("sendQuery: %v", err)
	}

	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		t.Fatalf("read echo: %v", err)
	}

	in, err := envelope.DecodeInbound(raw)
	if err != nil {
		t.Fatalf("DecodeInbound: %v", err)
	}
	if in.Tag != "query" || in.Query == nil || in.Query.Target != envelope.TargetDevices {
		t.Errorf("unexpected query: %+v", in)
	}
}

func TestSendSubscribeAndUnsubscribeRoundTrip(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()
	c := dialTest(t, srv)
	defer c.close()

	if err := c.sendSubscribe(envelope.Subscribe{Device: "dev-1", Events: []string{"sample"}, ID: "s-1"}); err != nil {
		t.Fatalf("sendSubscribe: %v", err)
	}
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		t.Fatalf("read echo: %v", err)
	}
	in, err := envelope.DecodeInbound(raw)
	if err != nil {
		t.Fatalf("DecodeInbound: %v", err)
	}
	if in.Tag != "subscribe" || in.Unsubscribe {
		t.Errorf("expected subscribe tag, got %+v", in)
	}

	if err := c.sendUnsubscribe(envelope.Subscribe{Device: "dev-1", ID: "u-1"}); err != nil {
		t.Fatalf("sendUnsubscribe: %v", err)
	}
	_, raw, err = c.conn.ReadMessage()
	if err != nil {
		t.Fatalf("read echo: %v", err)
	}
	in, err = envelope.DecodeInbound(raw)
	if err != nil {
		t.Fatalf("DecodeInbound: %v", err)
	}
	if in.Tag != "unsubscribe" || !in.Unsubscribe {
		t.Errorf("expected unsubscribe tag, got %+v", in)
	}
}
