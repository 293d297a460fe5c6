package session

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wricardo/mcp-training/chesslobby/game/engine"
	"go.uber.org/zap"
)

// Manager owns the lobby and the live-game registry and routes every inbound
// action to them. All operations run under a single lock, so each action is
// fully handled, including its notifications, before the next one starts.
//
// Operations are fail-soft: a rejected request is answered on the
// requester's connection and returned as an error, and never touches
// unrelated state.
type Manager struct {
	mu sync.Mutex

	lobby *Lobby
	games *registry

	newRules engine.Factory
	start    string
	policy   UsernamePolicy
	coin     func() bool
	newID    func() string
	logger   *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRuleEngine sets the factory used to build each game's rule engine.
func WithRuleEngine(f engine.Factory) Option {
	return func(m *Manager) { m.newRules = f }
}

// WithStartPosition sets the initial board state of new games.
func WithStartPosition(state string) Option {
	return func(m *Manager) { m.start = state }
}

// WithUsernamePolicy sets the identity format policy.
func WithUsernamePolicy(p UsernamePolicy) Option {
	return func(m *Manager) { m.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithCoinFlip replaces the side assignment coin. It returns true when the
// older of the two paired requests plays white.
func WithCoinFlip(f func() bool) Option {
	return func(m *Manager) { m.coin = f }
}

// WithIDGenerator replaces the game and token id generator.
func WithIDGenerator(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

// NewManager creates a manager playing standard chess.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		lobby:    NewLobby(),
		games:    newRegistry(),
		newRules: engine.NewChessEngine,
		start:    engine.StartingPosition,
		policy:   DefaultUsernamePolicy,
		coin:     fairCoin,
		newID:    uuid.NewString,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// fairCoin flips an unbiased coin using crypto/rand.
func fairCoin() bool {
	n, err := rand.Int(rand.Reader, big.NewInt(2))
	if err != nil {
		return true
	}
	return n.Int64() == 0
}

// RequestMatch queues a match request and starts a game for every pair that
// becomes available. A request without a token is issued one.
func (m *Manager) RequestMatch(req MatchRequest) error {
	if req.Conn == nil {
		return ErrInvalidAction
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.policy.Validate(req.Username); err != nil {
		return m.reject(req.Conn, err)
	}
	if _, ok := m.games.gameByUser(req.Username); ok {
		return m.reject(req.Conn, ErrAlreadyInGame)
	}
	if _, ok := m.games.gameByConn(req.Conn); ok {
		return m.reject(req.Conn, ErrAlreadyInGame)
	}

	if req.Token == "" {
		if queued, ok := m.lobby.Find(req.Username); ok {
			req.Token = queued.Token
		} else {
			req.Token = m.newID()
		}
	} else {
		if _, ok := m.games.gameByToken(req.Token); ok {
			return m.reject(req.Conn, ErrTokenInUse)
		}
		if owner, ok := m.lobby.TokenOwner(req.Token); ok && owner != req.Username {
			return m.reject(req.Conn, ErrTokenInUse)
		}
	}

	pairs := m.lobby.Enqueue(&req)
	m.logger.Info("match requested",
		zap.String("username", req.Username),
		zap.String("time_control", req.TimeControl),
		zap.Int("queue_length", m.lobby.Len()))

	for _, p := range pairs {
		m.pair(p[0], p[1])
	}
	return nil
}

// CancelMatch removes any queued request made from conn.
func (m *Manager) CancelMatch(conn Conn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lobby.Remove(conn) {
		m.logger.Debug("match request cancelled", zap.Int("queue_length", m.lobby.Len()))
	}
	return nil
}

// Move submits a move for the side claimed in view.
func (m *Manager) Move(view View, move string, conn Conn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, err := m.authorized(view, conn)
	if err != nil {
		return m.reject(conn, err)
	}

	ended, err := g.SubmitMove(view.Color, move)
	if ended {
		m.deregister(g)
	}
	return err
}

// Resign ends the game in view in favour of the opponent.
func (m *Manager) Resign(view View, conn Conn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, err := m.authorized(view, conn)
	if err != nil {
		return m.reject(conn, err)
	}

	if g.Resign(view.Color) {
		m.deregister(g)
	}
	return nil
}

// LeaveGame forfeits gameID for the player bound to conn.
func (m *Manager) LeaveGame(gameID string, conn Conn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games.game(gameID)
	if !ok {
		return m.reject(conn, ErrGameNotFound)
	}
	if _, ok := g.SideOf(conn); !ok {
		return m.reject(conn, ErrUnauthorized)
	}

	if g.Leave(conn) {
		m.deregister(g)
	}
	return nil
}

// Rejoin binds conn to the side owning token and sends it a full snapshot.
// A later rejoin with the same token takes the slot over.
func (m *Manager) Rejoin(token string, conn Conn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games.gameByToken(token)
	if !ok || token == "" {
		return m.reject(conn, ErrNoSessionToRejoin)
	}
	if other, ok := m.games.gameByConn(conn); ok && other != g {
		return m.reject(conn, ErrAlreadyInGame)
	}
	if side, ok := g.SideOf(conn); ok && g.playerByToken(token).color != side {
		return m.reject(conn, ErrUnauthorized)
	}

	m.lobby.Remove(conn)

	prev, ok := g.Reconnect(token, conn)
	if !ok {
		return m.reject(conn, ErrNoSessionToRejoin)
	}
	m.games.rebind(g, prev, conn)

	m.logger.Info("player rejoined", zap.String("game_id", g.ID))
	return nil
}

// Disconnect forgets conn: it leaves the lobby and its game slot is emptied.
// A game whose both slots are empty is torn down.
func (m *Manager) Disconnect(conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lobby.Remove(conn)

	g, ok := m.games.gameByConn(conn)
	if !ok {
		return
	}

	empty := g.Disconnect(conn)
	m.games.unbindConn(g, conn)
	if empty {
		m.logger.Info("both players disconnected", zap.String("game_id", g.ID))
		m.deregister(g)
	}
}

// Stats returns the number of live games and queued requests.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{ActiveGames: m.games.len(), QueueLength: m.lobby.Len()}
}

// Health builds the health reply for the given number of open connections.
func (m *Manager) Health(connections int) Health {
	s := m.Stats()
	return Health{
		Status:             "ok",
		ConnectionCount:    connections,
		ActiveSessionCount: s.ActiveGames,
		QueueLength:        s.QueueLength,
	}
}

// Games lists live games, oldest first.
func (m *Manager) Games() []GameInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]GameInfo, 0, m.games.len())
	for _, g := range m.games.byID {
		out = append(out, g.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Game returns a live game by id.
func (m *Manager) Game(id string) (GameInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games.game(id)
	if !ok {
		return GameInfo{}, ErrGameNotFound
	}
	return g.Info(), nil
}

// Queue lists queued match requests in arrival order.
func (m *Manager) Queue() []QueuedInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lobby.Entries()
}

// authorized resolves view's game and checks that conn is bound to the side
// view claims.
func (m *Manager) authorized(view View, conn Conn) (*Game, error) {
	g, ok := m.games.game(view.GameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	side, ok := g.SideOf(conn)
	if !ok || side != view.Color {
		return nil, ErrUnauthorized
	}
	return g, nil
}

func (m *Manager) pair(a, b *MatchRequest) {
	rules, err := m.newRules(m.start)
	if err != nil {
		m.logger.Error("failed to create rule engine", zap.Error(err))
		for _, req := range []*MatchRequest{a, b} {
			m.send(req.Conn, ErrorReply{Message: "failed to start game"})
		}
		return
	}

	id := m.newID()
	for {
		if _, exists := m.games.game(id); !exists {
			break
		}
		id = m.newID()
	}

	g := newGame(id, a, b, m.coin(), m.start, rules, m.logger)
	m.games.insert(g)
	g.start()

	m.logger.Info("game created",
		zap.String("game_id", g.ID),
		zap.String("white", g.white.username),
		zap.String("black", g.black.username))
}

func (m *Manager) deregister(g *Game) {
	m.games.remove(g)
	m.logger.Debug("game deregistered", zap.String("game_id", g.ID), zap.Int("active_games", m.games.len()))
}

// reject answers conn with err's message and returns err.
func (m *Manager) reject(conn Conn, err error) error {
	m.send(conn, ErrorReply{Message: err.Error()})
	if !errors.Is(err, ErrGameNotFound) {
		m.logger.Debug("request rejected", zap.Error(err))
	}
	return err
}

func (m *Manager) send(conn Conn, msg any) {
	if conn == nil {
		return
	}
	if err := conn.Send(msg); err != nil {
		m.logger.Warn("send failed", zap.Error(err))
	}
}
