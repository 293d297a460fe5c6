package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/chesslobby/game/session"
)

// Client is a thin MCP client that proxies to the HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the HTTP API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Chess Lobby",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Chess Lobby - MCP Interface

This is a read-only client that proxies all requests to the HTTP API server.
Players queue, play and reconnect over the WebSocket endpoint; these tools
let you observe the server.

AVAILABLE TOOLS:
- server_health: Connection count, live games and queue length
- list_games: List live games with players and positions
- get_game: Details of one live game
- lobby_status: Players waiting for an opponent
- protocol_instructions: How clients talk to the WebSocket endpoint`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_health",
		Description: "Get server health: open connections, live games and queue length",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerHealth)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all live games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_game",
		Description: "Get details of a live game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID to retrieve",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGetGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "lobby_status",
		Description: "List match requests waiting for an opponent",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleLobbyStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "protocol_instructions",
		Description: "Describe the WebSocket protocol used by players",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleProtocolInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleServerHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var health session.Health
	if err := c.apiCall(ctx, "/api/health", &health); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHealth(&health)), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                `json:"count"`
		Games []session.GameInfo `json:"games"`
	}

	if err := c.apiCall(ctx, "/api/games", &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Live Games (%d):\n\n", response.Count)
	for _, g := range response.Games {
		result += fmt.Sprintf("- %s: %s (white) vs %s (black), %d moves, started %s\n",
			g.ID, g.White.Username, g.Black.Username, g.Moves, g.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	if gameID == "" {
		return mcp.NewToolResultError("game_id is required"), nil
	}

	var game session.GameInfo
	if err := c.apiCall(ctx, "/api/games/"+url.PathEscape(gameID), &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameInfo(&game)), nil
}

func (c *Client) handleLobbyStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                  `json:"count"`
		Queue []session.QueuedInfo `json:"queue"`
	}

	if err := c.apiCall(ctx, "/api/lobby", &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("Lobby is empty"), nil
	}

	result := fmt.Sprintf("Waiting Players (%d):\n\n", response.Count)
	for i, q := range response.Queue {
		tc := q.TimeControl
		if tc == "" {
			tc = "any"
		}
		result += fmt.Sprintf("%d. %s (time control: %s, since %s)\n", i+1, q.Username, tc, q.QueuedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleProtocolInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Chess Lobby - WebSocket Protocol

CONNECTING:
Open a WebSocket to /ws. The server greets you with
  {"message": "connected to the game server"}

FINDING A GAME:
  {"action": "requestMatch", "username": "alice", "timeControl": "5+0"}
The two oldest requests are paired. Each player receives a snapshot:
  {"gameId", "color", "opponent", "gameState", "token"}
Keep the token: it is the only way back into the game after a disconnect.
  {"action": "cancelMatch"} leaves the queue.

PLAYING:
  {"action": "move", "move": "e4", "gameObj": <your last snapshot>}
Moves use SAN (e4, Nf3, O-O) or UCI (e2e4). Both players receive the new
snapshot. Illegal moves are answered with {"message": "Invalid move"} or
{"message": "Not your turn"} and only the mover hears about them.

ENDING:
  {"action": "resign", "gameObj": ...}
  {"action": "leaveGame", "gameId": "..."}
A finished game sends {"finalState", "message": "game is over", "reason", "winner"}.
Reasons: checkmate, stalemate, threefold_repetition, insufficient_material,
fifty_moves, draw, resign, opponent_left.

RECONNECTING:
  {"action": "rejoin", "token": "..."}
You receive a full snapshot and continue on the same side.

HEALTH:
  {"action": "health"}`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatHealth(h *session.Health) string {
	return fmt.Sprintf("Status: %s\nConnections: %d\nLive games: %d\nQueued players: %d\n",
		h.Status, h.ConnectionCount, h.ActiveSessionCount, h.QueueLength)
}

func formatGameInfo(g *session.GameInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Game: %s\n", g.ID)
	fmt.Fprintf(&b, "White: %s%s\n", g.White.Username, connectedSuffix(g.White.Connected))
	fmt.Fprintf(&b, "Black: %s%s\n", g.Black.Username, connectedSuffix(g.Black.Connected))
	if g.TimeControl != "" {
		fmt.Fprintf(&b, "Time control: %s\n", g.TimeControl)
	}
	fmt.Fprintf(&b, "Moves played: %d\n", g.Moves)
	fmt.Fprintf(&b, "Position: %s\n", g.GameState)
	fmt.Fprintf(&b, "Started: %s\n", g.CreatedAt.Format(time.RFC3339))

	return b.String()
}

func connectedSuffix(connected bool) string {
	if connected {
		return ""
	}
	return " (disconnected)"
}
