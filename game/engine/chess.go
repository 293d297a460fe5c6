package engine

import (
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

// ChessEngine implements RuleEngine for standard chess. Board states are FEN
// strings; moves are accepted in SAN and, failing that, in UCI notation.
type ChessEngine struct {
	game *chess.Game
}

// NewChessEngine creates a chess engine seeded with the given FEN. An empty
// string selects the standard starting position.
func NewChessEngine(initial string) (RuleEngine, error) {
	game, err := gameFromFEN(initial)
	if err != nil {
		return nil, err
	}
	return &ChessEngine{game: game}, nil
}

// ValidatePosition reports whether fen parses as a chess position whose
// game is not already over.
func ValidatePosition(fen string) error {
	game, err := gameFromFEN(fen)
	if err != nil {
		return err
	}
	if game.Outcome() != chess.NoOutcome || len(game.ValidMoves()) == 0 {
		return fmt.Errorf("position %q is already decided", fen)
	}
	return nil
}

func gameFromFEN(fen string) (*chess.Game, error) {
	if strings.TrimSpace(fen) == "" {
		fen = StartingPosition
	}
	option, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid position %q: %w", fen, err)
	}
	return chess.NewGame(option), nil
}

// Apply validates move for mover against state and plays it when legal.
func (e *ChessEngine) Apply(state string, mover Color, move string) Result {
	// Resync when the caller's state diverged from ours; repetition history
	// is lost in that case.
	if state != "" && state != e.game.FEN() {
		game, err := gameFromFEN(state)
		if err != nil {
			return Rejected(ReasonInvalidMove)
		}
		e.game = game
	}

	if e.game.Outcome() != chess.NoOutcome {
		return Rejected(ReasonInvalidMove)
	}

	if colorFrom(e.game.Position().Turn()) != mover {
		return Rejected(ReasonNotYourTurn)
	}

	move = strings.TrimSpace(move)
	if move == "" {
		return Rejected(ReasonInvalidMove)
	}

	if err := e.game.PushNotationMove(move, chess.AlgebraicNotation{}, nil); err != nil {
		if err := e.game.PushNotationMove(strings.ToLower(move), chess.UCINotation{}, nil); err != nil {
			return Rejected(ReasonInvalidMove)
		}
	}

	result := Result{Accepted: true}

	if e.game.Outcome() == chess.NoOutcome {
		// Repetition and the fifty-move rule are claimable draws; end the game
		// on them the moment they become available.
		for _, method := range e.game.EligibleDraws() {
			if method == chess.ThreefoldRepetition || method == chess.FiftyMoveRule {
				if err := e.game.Draw(method); err == nil {
					break
				}
			}
		}
	}

	result.State = e.game.FEN()

	switch e.game.Outcome() {
	case chess.NoOutcome:
		return result
	case chess.WhiteWon:
		result.Winner = White
	case chess.BlackWon:
		result.Winner = Black
	}

	result.Terminal = true
	result.Reason = reasonFor(e.game.Method())
	return result
}

func reasonFor(method chess.Method) string {
	switch method {
	case chess.Checkmate:
		return ReasonCheckmate
	case chess.Stalemate:
		return ReasonStalemate
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		return ReasonThreefoldRepetition
	case chess.InsufficientMaterial:
		return ReasonInsufficientMaterial
	case chess.FiftyMoveRule, chess.SeventyFiveMoveRule:
		return ReasonFiftyMoves
	default:
		return ReasonDraw
	}
}

func colorFrom(c chess.Color) Color {
	if c == chess.White {
		return White
	}
	return Black
}
