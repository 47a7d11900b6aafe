package dispatcher

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bridged-io/bridged/pkg/fanout"
	"github.com/bridged-io/bridged/pkg/log"
	"github.com/bridged-io/bridged/pkg/perfacct"
	"github.com/bridged-io/bridged/pkg/registry"
)

// PingPeriod is the keepalive interval for the write pump.
const PingPeriod = 30 * time.Second

// PongWait bounds how long a session tolerates silence from the peer
// before the connection is considered dead.
const PongWait = 60 * time.Second

// Server upgrades HTTP connections to the bridge's WebSocket surface and
// owns the collaborators every session dispatches against.
type Server struct {
	reg      *registry.Registry
	fanout   *fanout.Manager
	perf     *perfacct.Accountant
	logger   log.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a dispatcher wired to reg, fanoutMgr and perf. A nil
// logger is replaced with log.NoopLogger.
func NewServer(reg *registry.Registry, fanoutMgr *fanout.Manager, perf *perfacct.Accountant, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Server{
		reg:    reg,
		fanout: fanoutMgr,
		perf:   perf,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and runs the
// session until the client disconnects. It satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Log(log.Event{
			Timestamp: time.Now(),
			Layer:     log.LayerDispatcher,
			Category:  log.CategoryError,
			Message:   "websocket upgrade failed",
			Error:     &log.ErrorEventData{Message: err.Error(), Context: "upgrade"},
		})
		return
	}

	sess := newSession(uuid.NewString(), conn, s)
	sess.run()
}
