package session

import (
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/chesslobby/game/engine"
	"go.uber.org/zap"
)

// player is one side of a game. conn is nil while the player is disconnected.
type player struct {
	username string
	color    engine.Color
	token    string
	conn     Conn
}

// Game is one live two-player session. It owns the authoritative board state
// and the rule engine instance for its lifetime.
//
// A Game never deregisters itself: operations that end it return true and
// the Manager removes it from every index. Methods are not safe for
// concurrent use; the Manager serialises access.
type Game struct {
	ID          string
	TimeControl string
	CreatedAt   time.Time

	white *player
	black *player

	state  string
	moves  int
	rules  engine.RuleEngine
	ended  bool
	logger *zap.Logger
}

// newGame builds a game from two match requests. whiteFirst selects whether
// a plays white.
func newGame(id string, a, b *MatchRequest, whiteFirst bool, start string, rules engine.RuleEngine, logger *zap.Logger) *Game {
	pa := &player{username: a.Username, token: a.Token, conn: a.Conn}
	pb := &player{username: b.Username, token: b.Token, conn: b.Conn}

	g := &Game{
		ID:          id,
		TimeControl: a.TimeControl,
		CreatedAt:   time.Now(),
		state:       start,
		rules:       rules,
		logger:      logger.With(zap.String("game_id", id)),
	}

	if whiteFirst {
		g.white, g.black = pa, pb
	} else {
		g.white, g.black = pb, pa
	}
	g.white.color = engine.White
	g.black.color = engine.Black

	return g
}

// start sends each side its initial snapshot.
func (g *Game) start() {
	g.send(g.white, g.snapshot(g.white, true))
	g.send(g.black, g.snapshot(g.black, true))
}

// State returns the current authoritative board state.
func (g *Game) State() string {
	return g.state
}

// Ended reports whether the game reached a terminal state.
func (g *Game) Ended() bool {
	return g.ended
}

// SideOf returns the color bound to conn.
func (g *Game) SideOf(conn Conn) (engine.Color, bool) {
	if p := g.playerByConn(conn); p != nil {
		return p.color, true
	}
	return "", false
}

// SubmitMove applies move for the given side. It returns true when the move
// ended the game. A rejected move is reported to the mover only and returned
// as an ErrIllegalMove error.
func (g *Game) SubmitMove(color engine.Color, move string) (bool, error) {
	p := g.playerByColor(color)
	if p == nil || g.ended {
		return false, ErrGameNotFound
	}

	res := g.rules.Apply(g.state, color, move)
	if !res.Accepted {
		g.send(p, ErrorReply{Message: res.Reason})
		return false, fmt.Errorf("%w: %s", ErrIllegalMove, res.Reason)
	}

	g.state = res.State
	g.moves++

	if !res.Terminal {
		g.send(g.white, g.snapshot(g.white, false))
		g.send(g.black, g.snapshot(g.black, false))
		return false, nil
	}

	winner := ""
	if res.Winner.Valid() {
		winner = g.playerByColor(res.Winner).username
	}
	g.finish(res.Reason, winner, g.white, g.black)
	return true, nil
}

// Resign ends the game in favour of the opposing side.
func (g *Game) Resign(color engine.Color) bool {
	if g.ended || !color.Valid() {
		return false
	}
	winner := g.playerByColor(color.Opponent())
	g.finish(ReasonResign, winner.username, g.white, g.black)
	return true
}

// Leave forfeits the game for the player bound to conn. Only the other side
// is notified.
func (g *Game) Leave(conn Conn) bool {
	p := g.playerByConn(conn)
	if p == nil || g.ended {
		return false
	}
	other := g.playerByColor(p.color.Opponent())
	g.finish(ReasonOpponentLeft, other.username, other)
	return true
}

// Disconnect empties the slot bound to conn. It reports whether both slots
// are now empty; the game itself stays alive either way.
func (g *Game) Disconnect(conn Conn) bool {
	if p := g.playerByConn(conn); p != nil {
		p.conn = nil
	}
	return g.white.conn == nil && g.black.conn == nil
}

// Reconnect binds conn to the side owning token and sends that side a full
// snapshot. It returns the connection previously bound to the side, if any.
func (g *Game) Reconnect(token string, conn Conn) (Conn, bool) {
	p := g.playerByToken(token)
	if p == nil || g.ended {
		return nil, false
	}
	prev := p.conn
	p.conn = conn
	g.send(p, g.snapshot(p, true))
	return prev, true
}

// Info returns a read-only description of the game.
func (g *Game) Info() GameInfo {
	return GameInfo{
		ID:          g.ID,
		White:       PlayerInfo{Username: g.white.username, Color: engine.White, Connected: g.white.conn != nil},
		Black:       PlayerInfo{Username: g.black.username, Color: engine.Black, Connected: g.black.conn != nil},
		GameState:   g.state,
		TimeControl: g.TimeControl,
		Moves:       g.moves,
		CreatedAt:   g.CreatedAt,
	}
}

func (g *Game) finish(reason, winner string, notify ...*player) {
	g.ended = true
	over := GameOver{
		FinalState: g.state,
		Message:    GameOverMessage,
		Reason:     reason,
		Winner:     winner,
	}
	for _, p := range notify {
		g.send(p, over)
	}
	g.logger.Info("game ended", zap.String("reason", reason), zap.String("winner", winner), zap.Int("moves", g.moves))
}

func (g *Game) snapshot(p *player, withToken bool) Snapshot {
	s := Snapshot{
		View: View{
			GameID:    g.ID,
			Color:     p.color,
			Opponent:  g.playerByColor(p.color.Opponent()).username,
			GameState: g.state,
		},
	}
	if withToken {
		s.Token = p.token
	}
	return s
}

// send delivers msg to p's current connection. Empty slots are skipped.
func (g *Game) send(p *player, msg any) {
	if p.conn == nil {
		return
	}
	if err := p.conn.Send(msg); err != nil {
		g.logger.Warn("send failed", zap.String("username", p.username), zap.Error(err))
	}
}

func (g *Game) playerByColor(c engine.Color) *player {
	switch c {
	case engine.White:
		return g.white
	case engine.Black:
		return g.black
	}
	return nil
}

func (g *Game) playerByConn(conn Conn) *player {
	if conn == nil {
		return nil
	}
	if g.white.conn == conn {
		return g.white
	}
	if g.black.conn == conn {
		return g.black
	}
	return nil
}

func (g *Game) playerByToken(token string) *player {
	if token == "" {
		return nil
	}
	if g.white.token == token {
		return g.white
	}
	if g.black.token == token {
		return g.black
	}
	return nil
}

func (g *Game) players() [2]*player {
	return [2]*player{g.white, g.black}
}
