// Package engine defines the rule engine boundary used by live games.
//
// A RuleEngine validates a proposed move against an opaque board state and
// reports either a rejection or the next state, together with a terminal
// outcome when the move ended the game. Callers treat both the state and the
// move text as opaque strings and thread them through unchanged.
//
// ChessEngine is the standard chess implementation. States are FEN strings,
// moves are SAN ("Nf3") or UCI ("g1f3"). Besides checkmate and stalemate it
// ends games on insufficient material, threefold repetition and the
// fifty-move rule, claiming the latter two automatically.
//
// Usage:
//
//	eng, err := engine.NewChessEngine(engine.StartingPosition)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res := eng.Apply(engine.StartingPosition, engine.White, "e4")
//	if !res.Accepted {
//		log.Printf("rejected: %s", res.Reason)
//	}
package engine
