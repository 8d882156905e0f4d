package api

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Viewers load the noVNC page from the display proxy port, so the
	// Origin header never matches the agent's own host.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsClient is a middleman between a websocket connection and the hub.
type wsClient struct {
	hub  *Hub
	log  *logging.Logger
	conn *websocket.Conn

	// Buffered channel of outbound log lines.
	send      chan []byte
	sendClose sync.Once
}

func (c *wsClient) close() {
	c.sendClose.Do(func() {
		close(c.send)
	})
}

// detach hands the client back to the hub. When the hub has already
// stopped, nobody drains unregisterCh, so the send races against done.
func (c *wsClient) detach() {
	select {
	case c.hub.unregisterCh <- c:
	case <-c.hub.done:
	}
}

// readPump drains the connection until it errors. Log viewers never send
// anything the agent acts on; reading is only how disconnects surface.
//
// The application ensures at most one reader per connection by executing
// all reads from this goroutine.
func (c *wsClient) readPump() {
	defer func() {
		c.detach()
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("Log viewer connection ended abnormally")
			}
			return
		}
	}
}

// writePump pumps lines from the hub to the websocket connection.
//
// A goroutine running writePump is started for each connection, and all
// writes happen from it.
func (c *wsClient) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(constants.WSWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.log.Debug().Err(err).Msg("Failed writing to log viewer")
			return
		}
	}

	// The hub closed the channel.
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Hub fans scenario log lines out to every connected viewer. A single
// goroutine owns the client set; registration, unregistration, and
// broadcasts are serialized through its channels.
type Hub struct {
	log *logging.Logger

	clients map[*wsClient]bool

	broadcastCh  chan []byte
	registerCh   chan *wsClient
	unregisterCh chan *wsClient

	// done is closed when Run exits so pumps stuck handing a client to
	// the hub can bail out instead of blocking forever.
	done chan struct{}

	viewerCount  atomic.Int64
	droppedLines atomic.Int64
}

// NewHub returns a hub ready for Run.
func NewHub(log *logging.Logger) *Hub {
	return &Hub{
		log:          log,
		clients:      make(map[*wsClient]bool),
		broadcastCh:  make(chan []byte, 256),
		registerCh:   make(chan *wsClient),
		unregisterCh: make(chan *wsClient),
		done:         make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled. On exit every client
// queue is closed, which ends the write pumps and closes the connections.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				c.close()
			}
			h.viewerCount.Store(0)
			close(h.done)
			return
		case c := <-h.registerCh:
			h.clients[c] = true
			h.viewerCount.Store(int64(len(h.clients)))
			h.log.Debug().Int("viewers", len(h.clients)).Msg("Log viewer connected")
		case c := <-h.unregisterCh:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
				h.viewerCount.Store(int64(len(h.clients)))
				h.log.Debug().Int("viewers", len(h.clients)).Msg("Log viewer disconnected")
			}
		case message := <-h.broadcastCh:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Queue full. Drop the viewer's oldest line to
					// make room for the newest.
					select {
					case <-c.send:
						h.droppedLines.Add(1)
					default:
					}
					select {
					case c.send <- message:
					default:
					}
				}
			}
		}
	}
}

// Broadcast queues a log line for delivery to every viewer. It never
// blocks the log streamer; lines are dropped when the hub is saturated.
func (h *Hub) Broadcast(line string) {
	select {
	case h.broadcastCh <- []byte(line):
	default:
		h.droppedLines.Add(1)
	}
}

// ViewerCount returns how many log viewers are connected.
func (h *Hub) ViewerCount() int {
	return int(h.viewerCount.Load())
}

// DroppedLines returns how many lines were discarded because a queue or
// the hub itself was full.
func (h *Hub) DroppedLines() int64 {
	return h.droppedLines.Load()
}

// ServeWS upgrades an HTTP request and attaches the viewer to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	c := &wsClient{
		hub:  h,
		log:  h.log,
		conn: conn,
		send: make(chan []byte, constants.WSClientSendBuffer),
	}
	select {
	case h.registerCh <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
