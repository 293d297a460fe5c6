// Package websocket provides the WebSocket transport for the chess lobby.
//
// The websocket package implements:
//   - Upgrade with an optional origin allow-list
//   - Per-connection read limit and inbound rate limit
//   - JSON action decoding, including the createGame and makeMove aliases
//   - Non-blocking outbound queues with ping/pong keep-alive
//
// Architecture:
//
// A central Hub owns every connection. Each Client runs a read pump and a
// write pump; decoded actions are handed to the Hub's event loop, which calls
// the session manager one action at a time. Clients implement session.Conn,
// so the manager pushes replies and notifications straight into their
// outbound queues.
//
// Message Protocol:
//
//   - Incoming: {action: "move", move: "e4", gameObj: {gameId, color, ...}}
//   - Outgoing: snapshots, {message} errors, game over and health replies
//
// Every connection is greeted with {message: "connected to the game server"}.
// Malformed frames and unknown actions are answered with an error and the
// connection stays open. Oversize frames close the connection.
//
// Usage:
//
//	hub := websocket.NewHub(manager, cfg, logger)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", hub.ServeWS)
package websocket
