package websocket

import (
	"context"
	"net/http"
	"slices"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/wricardo/mcp-training/chesslobby/game/config"
	"github.com/wricardo/mcp-training/chesslobby/game/session"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// inbound is one frame read from a client: a decoded action, or a reply
// for a frame that was rejected before decoding.
type inbound struct {
	client *Client
	msg    *Message
	reply  string
}

// Hub owns every live connection and feeds their actions to the session
// manager from a single goroutine, in arrival order.
type Hub struct {
	manager  *session.Manager
	cfg      *config.Config
	logger   *zap.Logger
	upgrader websocket.Upgrader

	// Registered clients. Owned by Run.
	clients map[*Client]bool

	// Connection count readable from any goroutine.
	connections atomic.Int64

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Decoded actions from clients
	inbound chan inbound

	// Closed when Run returns
	done chan struct{}
}

// NewHub creates a hub routing actions to manager.
func NewHub(manager *session.Manager, cfg *config.Config, logger *zap.Logger) *Hub {
	h := &Hub{
		manager:    manager,
		cfg:        cfg,
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run starts the hub's event loop. It returns when ctx is cancelled, after
// closing every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			h.logger.Info("websocket hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.connections.Add(1)
			client.Send(Greeting{Message: GreetingMessage})
			h.logger.Debug("client registered", zap.Int64("connections", h.connections.Load()))

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
				h.logger.Debug("client unregistered", zap.Int64("connections", h.connections.Load()))
			}

		case in := <-h.inbound:
			if !h.clients[in.client] {
				continue
			}
			if in.msg == nil {
				in.client.Send(session.ErrorReply{Message: in.reply})
				continue
			}
			h.dispatch(in.client, in.msg)
		}
	}
}

// ConnectionCount returns the number of open connections.
func (h *Hub) ConnectionCount() int {
	return int(h.connections.Load())
}

// Health builds the health reply for the current state.
func (h *Hub) Health() session.Health {
	return h.manager.Health(h.ConnectionCount())
}

// ServeWS upgrades the request and starts the client's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, h.cfg.SendBuffer),
		limiter: rate.NewLimiter(rate.Limit(h.cfg.RateLimit), h.cfg.RateBurst),
		logger:  h.logger.With(zap.String("remote", r.RemoteAddr)),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h.cfg.MaxMessageSize)
}

func (h *Hub) dispatch(c *Client, msg *Message) {
	var err error

	switch msg.Action {
	case ActionRequestMatch, ActionCreateGame:
		err = h.manager.RequestMatch(session.MatchRequest{
			Username:    msg.Username,
			Token:       msg.Token,
			TimeControl: msg.TimeControl,
			Conn:        c,
		})
	case ActionCancelMatch:
		err = h.manager.CancelMatch(c)
	case ActionMove, ActionMakeMove:
		err = h.manager.Move(msg.view(), msg.Move, c)
	case ActionResign:
		err = h.manager.Resign(msg.view(), c)
	case ActionLeaveGame:
		err = h.manager.LeaveGame(msg.gameID(), c)
	case ActionRejoin:
		err = h.manager.Rejoin(msg.Token, c)
	case ActionHealth:
		err = c.Send(h.Health())
	default:
		err = session.ErrInvalidAction
		c.Send(session.ErrorReply{Message: err.Error()})
	}

	if err != nil {
		h.logger.Debug("action rejected", zap.String("action", msg.Action), zap.Error(err))
	}
}

// drop forgets a client and tells the manager its connection is gone.
func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	h.connections.Add(-1)
	h.manager.Disconnect(c)
	c.close()
}

// deliver hands in to the event loop, which answers every frame of a
// connection in the order it was read. It returns false once the hub stopped.
func (h *Hub) deliver(in inbound) bool {
	select {
	case h.inbound <- in:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// checkOrigin accepts requests without an Origin header and, when
// AllowedOrigins is set, only the listed origins.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, origin)
}
