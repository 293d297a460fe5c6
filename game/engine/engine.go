package engine

import "fmt"

// Color identifies one of the two sides of a game.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the complementary side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Valid reports whether c is White or Black.
func (c Color) Valid() bool {
	return c == White || c == Black
}

// Terminal reasons reported by a RuleEngine.
const (
	ReasonCheckmate            = "checkmate"
	ReasonStalemate            = "stalemate"
	ReasonThreefoldRepetition  = "threefold_repetition"
	ReasonInsufficientMaterial = "insufficient_material"
	ReasonFiftyMoves           = "fifty_moves"
	ReasonDraw                 = "draw"
)

// Rejection reasons reported by a RuleEngine.
const (
	ReasonNotYourTurn = "Not your turn"
	ReasonInvalidMove = "Invalid move"
)

// StartingPosition is the standard chess starting position in FEN.
const StartingPosition = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Result is the outcome of applying one move.
type Result struct {
	// Accepted is false when the move was rejected; Reason then explains why.
	Accepted bool
	// State is the next board state. Empty when the move was rejected.
	State string
	// Terminal is true when the accepted move ended the game.
	Terminal bool
	// Reason carries the rejection reason or the terminal reason.
	Reason string
	// Winner is the winning side of a decisive terminal move, empty for draws.
	Winner Color
}

// RuleEngine validates moves against an opaque board state.
//
// An instance is created per game and lives as long as the game does, so
// implementations may keep history (e.g. for repetition detection) between
// calls. The state argument is always the caller's authoritative state.
type RuleEngine interface {
	Apply(state string, mover Color, move string) Result
}

// Factory builds a RuleEngine seeded with an initial state.
type Factory func(initial string) (RuleEngine, error)

// Rejected builds a rejection result.
func Rejected(reason string) Result {
	return Result{Accepted: false, Reason: reason}
}

// String implements fmt.Stringer for log output.
func (r Result) String() string {
	if !r.Accepted {
		return fmt.Sprintf("rejected(%s)", r.Reason)
	}
	if r.Terminal {
		return fmt.Sprintf("terminal(%s, winner=%q)", r.Reason, r.Winner)
	}
	return "accepted"
}
