// Package api provides the HTTP routes of the chess lobby server.
//
// Endpoints:
//   - GET /api/health - Health reply (connections, live games, queue length)
//   - GET /api/games - List live games
//   - GET /api/games/{id} - Get one live game
//   - GET /api/lobby - List queued match requests
//   - GET /ws - WebSocket upgrade, see package websocket
//
// Everything under /api is read-only. Matchmaking and play happen over the
// WebSocket connection only; reconnect tokens are never exposed here.
package api
