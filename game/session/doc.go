// Package session pairs players and runs their games.
//
// The session package implements:
//   - A FIFO lobby of match requests
//   - Live games bound to a rule engine and two player slots
//   - Reconnect tokens that let a player resume a game from a new connection
//   - Indices by game id, connection, username and token
//
// Core Types:
//
// Manager is the entry point. Transports hand it inbound actions together
// with the Conn they arrived on; every reply and notification is pushed back
// through Conn.Send. Lobby holds queued MatchRequests and Game holds the
// state of one pairing.
//
// Identity:
//
// A username can be queued or playing in at most one game at a time. A
// connection is bound to at most one game. Tokens are issued at pairing time
// (or supplied by the client) and are the only credential accepted by Rejoin.
//
// Lifecycle:
//
// A game ends on checkmate, draw, resignation or when a player leaves; both
// players receive a GameOver and the game is removed from every index. When
// both connections drop without leaving, the game is torn down silently.
//
// Usage:
//
//	manager := session.NewManager(session.WithLogger(logger))
//
//	manager.RequestMatch(session.MatchRequest{Username: "alice", Conn: conn})
//	manager.Move(view, "e4", conn)
//	manager.Disconnect(conn)
package session
