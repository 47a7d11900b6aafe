package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bridged-io/bridged/pkg/envelope"
	"github.com/bridged-io/bridged/pkg/log"
)

// outboundCapacity bounds how many queued responses/events a slow client
// can accumulate before the write pump starts blocking its sender.
const outboundCapacity = 256

// session owns one client's WebSocket connection: a read pump decoding
// inbound frames and a write pump serializing outbound ones.
type session struct {
	id     string
	conn   *websocket.Conn
	server *Server

	ctx    context.Context
	cancel context.CancelFunc

	send chan envelope.Outbound
	wg   sync.WaitGroup // in-flight command goroutines

	subsMu sync.Mutex
	subs   map[string]*subscription // subscription id -> bookkeeping for its forwarder
}

func newSession(id string, conn *websocket.Conn, s *Server) *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		id:     id,
		conn:   conn,
		server: s,
		ctx:    ctx,
		cancel: cancel,
		send:   make(chan envelope.Outbound, outboundCapacity),
		subs:   make(map[string]*subscription),
	}
}

// run drives the session to completion: it starts the write pump, blocks
// in the read pump until the connection closes, then tears everything
// down in order so no command or subscription outlives the session.
func (s *session) run() {
	var writeWG sync.WaitGroup
	writeWG.Add(1)
	go func() {
		defer writeWG.Done()
		s.writePump()
	}()

	s.readPump()

	// Disconnection: cancel every in-flight command, wait for them to
	// unwind, drop every subscription this client owned, then stop the
	// write pump and close the socket.
	s.cancel()
	s.wg.Wait()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		close(sub.stop)
	}
	s.subsMu.Unlock()
	s.server.fanout.UnsubscribeClient(s.id)

	close(s.send)
	writeWG.Wait()
	s.conn.Close()
}

func (s *session) readPump() {
	s.conn.SetReadDeadline(time.Now().Add(PongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		if msgType != websocket.TextMessage {
			s.emit(envelope.ErrorResponse{
				Message: "binary frames are not supported",
				TsMs:    nowMs(),
			})
			continue
		}

		in, err := envelope.DecodeInbound(data)
		if err != nil {
			s.emit(envelope.ErrorResponse{Message: err.Error(), TsMs: nowMs()})
			continue
		}

		s.dispatch(in)
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case out, ok := <-s.send:
			if !ok {
				return
			}
			raw, err := out.MarshalEnvelope()
			if err != nil {
				continue
			}
			s.conn.SetWriteDeadline(time.Now().Add(PongWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(PongWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// emit queues a response for delivery, dropping it silently if the
// session's write side has already gone away.
func (s *session) emit(out envelope.Outbound) {
	select {
	case s.send <- out:
	case <-s.ctx.Done():
	}
}

// dispatch routes one decoded inbound frame. Commands run on their own
// goroutine, tracked by s.wg, so a slow operation against one device
// never delays frames addressed to another.
func (s *session) dispatch(in *envelope.Inbound) {
	switch in.Tag {
	case "command":
		s.wg.Add(1)
		go func(cmd *envelope.Command) {
			defer s.wg.Done()
			s.handleCommand(cmd)
		}(in.Command)
	case "query":
		s.wg.Add(1)
		go func(q *envelope.Query) {
			defer s.wg.Done()
			s.handleQuery(q)
		}(in.Query)
	case "subscribe":
		s.handleSubscribe(in.Subscribe, false)
	case "unsubscribe":
		s.handleSubscribe(in.Subscribe, true)
	default:
		s.emit(envelope.ErrorResponse{Message: "unrecognized frame tag", TsMs: nowMs()})
	}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// logError is a small helper shared by the command/query handlers to
// record a dispatcher-layer error event.
func (s *session) logError(code, message, opContext string) {
	s.server.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Layer:     log.LayerDispatcher,
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Code: code, Message: message, Context: opContext},
	})
}
