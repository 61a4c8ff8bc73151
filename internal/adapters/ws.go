// Package adapters owns the transport edge: the gin router, the websocket
// controller, and the per-connection read/write pumps. Everything behind
// this package speaks core types only.
package adapters

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/villan7667/sharing-app/internal/app"
	"github.com/villan7667/sharing-app/internal/config"
	"github.com/villan7667/sharing-app/internal/core"
	"github.com/villan7667/sharing-app/internal/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
)

// wsConn adapts a gorilla connection to core.SignalConnection. The send
// channel is never closed; TrySend fails fast once done is closed, so late
// broadcasts racing with a disconnect cannot panic.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame
	done chan struct{}
	once sync.Once
}

func newWSConn(conn *websocket.Conn, buffer int) *wsConn {
	return &wsConn{
		conn: conn,
		send: make(chan core.Frame, buffer),
		done: make(chan struct{}),
	}
}

func (c *wsConn) TrySend(f core.Frame) error {
	select {
	case <-c.done:
		return core.ErrConnClosed
	default:
	}
	select {
	case c.send <- f:
		return nil
	default:
		return core.ErrBackpressure
	}
}

func (c *wsConn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// WSController upgrades HTTP requests and runs one pump pair per
// connection. The read pump is the single reader, so messages from one
// connection are handled strictly in arrival order.
type WSController struct {
	relay      *app.Relay
	stats      *Stats
	upgrader   websocket.Upgrader
	readLimit  int64
	pingPeriod time.Duration
	sendBuffer int
}

func NewWSController(cfg *config.Config, relay *app.Relay, stats *Stats) *WSController {
	pingPeriod := cfg.PingPeriod
	if pingPeriod <= 0 || pingPeriod >= pongWait {
		pingPeriod = pongWait * 9 / 10
	}
	sendBuffer := cfg.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &WSController{
		relay:      relay,
		stats:      stats,
		readLimit:  cfg.ReadLimit,
		pingPeriod: pingPeriod,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     newOriginChecker(cfg.AllowedOrigins),
		},
	}
}

// Handle upgrades the request, assigns the connection its id, binds it to
// the relay, and starts the pumps.
func (ctl *WSController) Handle(ctx context.Context, c *gin.Context) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Str("module", "adapters.ws").Err(err).Msg("websocket upgrade failed")
		return
	}

	id := domain.ConnID(uuid.NewString())
	conn := newWSConn(ws, ctl.sendBuffer)
	ctl.relay.Bind(id, conn)
	ctl.stats.IncConn()
	log.Info().Str("module", "adapters.ws").Str("conn", string(id)).Str("remote", ws.RemoteAddr().String()).Msg("connection established")

	connCtx, cancel := context.WithCancel(ctx)
	go ctl.writePump(connCtx, conn)
	go ctl.readPump(connCtx, cancel, id, conn)
}

func (ctl *WSController) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump is the connection's owner: its exit is the disconnect signal,
// and registry cleanup runs synchronously with it.
func (ctl *WSController) readPump(ctx context.Context, cancel context.CancelFunc, id domain.ConnID, c *wsConn) {
	defer func() {
		ctl.relay.OnDisconnect(id)
		cancel()
		c.Close()
		ctl.stats.DecConn()
		log.Info().Str("module", "adapters.ws").Str("conn", string(id)).Msg("connection closed")
	}()

	c.conn.SetReadLimit(ctl.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Debug().Str("module", "adapters.ws").Str("conn", string(id)).Err(err).Msg("read error")
			}
			return
		}
		ctl.stats.IncMessage()
		ctl.handleMessage(id, data)
	}
}

// handleMessage decodes the envelope tag, then the per-type payload from
// the same bytes. Anything that does not decode is dropped; one peer's
// garbage must never disturb the rest of the room.
func (ctl *WSController) handleMessage(id domain.ConnID, data []byte) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Str("module", "adapters.ws").Str("conn", string(id)).Err(err).Msg("malformed frame dropped")
		return
	}

	switch env.Type {
	case core.TypeJoinRoom:
		var msg core.JoinRoom
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Str("module", "adapters.ws").Str("conn", string(id)).Err(err).Msg("bad join payload")
			return
		}
		ctl.relay.Join(id, msg)
	case core.TypeShareLocation:
		var msg core.ShareLocation
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Str("module", "adapters.ws").Str("conn", string(id)).Err(err).Msg("bad location payload")
			return
		}
		ctl.relay.ShareLocation(id, msg)
	case core.TypeShareFile:
		var msg core.ShareFile
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Str("module", "adapters.ws").Str("conn", string(id)).Err(err).Msg("bad file payload")
			return
		}
		ctl.relay.ShareFile(id, msg)
	case core.TypeOffer, core.TypeAnswer, core.TypeICECandidate:
		var msg core.Signal
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Str("module", "adapters.ws").Str("conn", string(id)).Err(err).Msg("bad signal payload")
			return
		}
		ctl.relay.ForwardSignal(id, env.Type, msg)
	default:
		log.Debug().Str("module", "adapters.ws").Str("conn", string(id)).Str("type", env.Type).Msg("unknown message type")
	}
}
