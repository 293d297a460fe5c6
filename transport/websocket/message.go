package websocket

import (
	"github.com/wricardo/mcp-training/chesslobby/game/engine"
	"github.com/wricardo/mcp-training/chesslobby/game/session"
)

// Inbound actions. createGame and makeMove are accepted as aliases.
const (
	ActionRequestMatch = "requestMatch"
	ActionCreateGame   = "createGame"
	ActionCancelMatch  = "cancelMatch"
	ActionMove         = "move"
	ActionMakeMove     = "makeMove"
	ActionResign       = "resign"
	ActionLeaveGame    = "leaveGame"
	ActionRejoin       = "rejoin"
	ActionHealth       = "health"
)

// GreetingMessage is sent to every client right after the upgrade.
const GreetingMessage = "connected to the game server"

// Transport-level reply messages.
const (
	msgInvalidFormat = "invalid message format"
	msgRateLimited   = "rate limit exceeded"
)

// Message is an inbound action record. Moves and resignations identify the
// game through GameObj, the view the client last received; GameID and Color
// are accepted when GameObj is absent.
type Message struct {
	Action      string        `json:"action"`
	Username    string        `json:"username,omitempty"`
	TimeControl string        `json:"timeControl,omitempty"`
	Token       string        `json:"token,omitempty"`
	GameID      string        `json:"gameId,omitempty"`
	Color       engine.Color  `json:"color,omitempty"`
	Move        string        `json:"move,omitempty"`
	GameObj     *session.View `json:"gameObj,omitempty"`
}

// Greeting is the first message on every connection.
type Greeting struct {
	Message string `json:"message"`
}

func (m *Message) view() session.View {
	if m.GameObj != nil {
		return *m.GameObj
	}
	return session.View{GameID: m.GameID, Color: m.Color}
}

func (m *Message) gameID() string {
	if m.GameID == "" && m.GameObj != nil {
		return m.GameObj.GameID
	}
	return m.GameID
}
