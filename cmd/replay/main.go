// Command replay plays a move list through the chess rule engine and prints
// the position after every move. It is useful for checking how the server
// will judge a game: which moves it accepts, and how and when it ends.
//
// Moves are read from the arguments, or from --file, in SAN or UCI. Move
// numbers ("1.", "12...") and result markers ("1-0", "*") are ignored.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/chesslobby/game/engine"
)

var errRejected = errors.New("move rejected")

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Replay a move list through the rule engine",
		ArgsUsage: "[moves...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "fen", Usage: "Starting position (default: standard start)"},
			&cli.StringFlag{Name: "file", Usage: "Read moves from a file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			text := strings.Join(cmd.Args().Slice(), " ")
			if path := cmd.String("file"); path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read moves: %w", err)
				}
				text = string(data)
			}

			moves := parseMoves(text)
			if len(moves) == 0 {
				return errors.New("no moves given")
			}

			_, err := replay(out, cmd.String("fen"), moves)
			return err
		},
	}
}

// parseMoves splits text into moves, dropping move numbers and results.
func parseMoves(text string) []string {
	var moves []string
	for _, tok := range strings.Fields(text) {
		if i := strings.LastIndex(tok, "."); i >= 0 {
			tok = tok[i+1:]
		}
		switch tok {
		case "", "1-0", "0-1", "1/2-1/2", "*":
			continue
		}
		moves = append(moves, tok)
	}
	return moves
}

// replay applies moves alternately for each side, starting with the side to
// move in start. It stops at the first rejected move or at a terminal state.
func replay(out io.Writer, start string, moves []string) (engine.Result, error) {
	rules, err := engine.NewChessEngine(start)
	if err != nil {
		return engine.Result{}, err
	}

	state := start
	if state == "" {
		state = engine.StartingPosition
	}
	mover := sideToMove(state)

	fmt.Fprintf(out, "start: %s\n", state)

	var res engine.Result
	for i, move := range moves {
		res = rules.Apply(state, mover, move)
		if !res.Accepted {
			fmt.Fprintf(out, "%3d. %-6s %-7s %s\n", i+1, move, mover, res)
			return res, fmt.Errorf("%w: %s at move %d (%s)", errRejected, move, i+1, res.Reason)
		}

		state = res.State
		fmt.Fprintf(out, "%3d. %-6s %-7s %s\n", i+1, move, mover, state)

		if res.Terminal {
			fmt.Fprintf(out, "result: %s\n", res)
			if i+1 < len(moves) {
				fmt.Fprintf(out, "ignored %d move(s) after the end\n", len(moves)-i-1)
			}
			return res, nil
		}
		mover = mover.Opponent()
	}

	fmt.Fprintf(out, "result: in progress, %s to move\n", mover)
	return res, nil
}

// sideToMove reads the active color field of a FEN.
func sideToMove(fen string) engine.Color {
	fields := strings.Fields(fen)
	if len(fields) > 1 && fields[1] == "b" {
		return engine.Black
	}
	return engine.White
}
