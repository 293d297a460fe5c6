package session

import (
	"time"

	"github.com/wricardo/mcp-training/chesslobby/game/engine"
)

// Conn is a client connection as seen by the manager. Implementations must
// be comparable (pointer types) because connections key the registries.
// Send must not block.
type Conn interface {
	Send(msg any) error
}

// MatchRequest is a queued intent to be paired into a game.
type MatchRequest struct {
	Username    string
	Token       string
	TimeControl string
	Conn        Conn

	queuedAt time.Time
}

// View identifies a game from one player's perspective. Clients echo it back
// on move and resign.
type View struct {
	GameID    string       `json:"gameId"`
	Color     engine.Color `json:"color"`
	Opponent  string       `json:"opponent"`
	GameState string       `json:"gameState"`
}

// Snapshot is the full game view pushed to a player.
type Snapshot struct {
	View
	Token string `json:"token,omitempty"`
}

// ErrorReply is sent for every rejected request.
type ErrorReply struct {
	Message string `json:"message"`
}

// GameOver is pushed to both players when a game ends.
type GameOver struct {
	FinalState string `json:"finalState"`
	Message    string `json:"message"`
	Reason     string `json:"reason"`
	Winner     string `json:"winner,omitempty"`
}

// GameOverMessage is the fixed message of every GameOver.
const GameOverMessage = "game is over"

// Reasons used for non-engine endings.
const (
	ReasonResign       = "resign"
	ReasonOpponentLeft = "opponent_left"
)

// Health is the reply to the health action.
type Health struct {
	Status             string `json:"status"`
	ConnectionCount    int    `json:"connectionCount"`
	ActiveSessionCount int    `json:"activeSessionCount"`
	QueueLength        int    `json:"queueLength"`
}

// Stats summarises manager state.
type Stats struct {
	ActiveGames int `json:"active_games"`
	QueueLength int `json:"queue_length"`
}

// PlayerInfo describes one side of a game for read-only listings.
type PlayerInfo struct {
	Username  string       `json:"username"`
	Color     engine.Color `json:"color"`
	Connected bool         `json:"connected"`
}

// GameInfo is a read-only snapshot of a live game.
type GameInfo struct {
	ID          string     `json:"id"`
	White       PlayerInfo `json:"white"`
	Black       PlayerInfo `json:"black"`
	GameState   string     `json:"game_state"`
	TimeControl string     `json:"time_control,omitempty"`
	Moves       int        `json:"moves"`
	CreatedAt   time.Time  `json:"created_at"`
}

// QueuedInfo is a read-only snapshot of a queued match request.
type QueuedInfo struct {
	Username    string    `json:"username"`
	TimeControl string    `json:"time_control,omitempty"`
	QueuedAt    time.Time `json:"queued_at"`
}
