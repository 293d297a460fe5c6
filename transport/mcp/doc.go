// Package mcp exposes the chess lobby to MCP clients.
//
// The Client is a thin proxy: every tool calls the HTTP API and formats the
// JSON response as text. It never talks to the session manager directly, so
// the same tools work over stdio against a remote server and at the /mcp
// endpoint of a local one.
//
// Tools:
//   - server_health
//   - list_games
//   - get_game (game_id)
//   - lobby_status
//   - protocol_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
