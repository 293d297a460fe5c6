package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/mcp-training/chesslobby/game/engine"
	"github.com/wricardo/mcp-training/chesslobby/game/session"
)

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	t.Run("decodes response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok"})
		}))
		defer server.Close()

		var response map[string]interface{}
		if err := NewClient(server.URL).apiCall(context.Background(), "/api/health", &response); err != nil {
			t.Fatalf("apiCall failed: %v", err)
		}
		if response["status"] != "ok" {
			t.Errorf("Unexpected response %v", response)
		}
	})

	t.Run("unreachable server", func(t *testing.T) {
		client := NewClient("http://invalid-url-that-does-not-exist:9999")
		if err := client.apiCall(context.Background(), "/api/health", nil); err == nil {
			t.Error("Expected error for invalid URL")
		}
	})

	t.Run("error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "game not found"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "/api/games/x", nil)
		if err == nil || err.Error() != "game not found" {
			t.Errorf("Expected API error message, got %v", err)
		}
	})

	t.Run("bare status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "/api/health", nil)
		if err == nil || !strings.Contains(err.Error(), "500") {
			t.Errorf("Expected status error, got %v", err)
		}
	})
}

func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	created := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	game := session.GameInfo{
		ID:        "game-123",
		White:     session.PlayerInfo{Username: "alice", Color: engine.White, Connected: true},
		Black:     session.PlayerInfo{Username: "bob", Color: engine.Black},
		GameState: engine.StartingPosition,
		Moves:     0,
		CreatedAt: created,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(session.Health{Status: "ok", ConnectionCount: 3, ActiveSessionCount: 1, QueueLength: 1})
	})
	mux.HandleFunc("/api/games", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"count": 1, "games": []session.GameInfo{game}})
	})
	mux.HandleFunc("/api/games/game-123", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(game)
	})
	mux.HandleFunc("/api/games/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "game not found"})
	})
	mux.HandleFunc("/api/lobby", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 1,
			"queue": []session.QueuedInfo{{Username: "carol", QueuedAt: created}},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_Tools(t *testing.T) {
	client := NewClient(newFakeAPI(t).URL)
	ctx := context.Background()

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]interface{}
		want    []string
	}{
		{
			name:    "server_health",
			handler: client.handleServerHealth,
			want:    []string{"Status: ok", "Connections: 3", "Live games: 1", "Queued players: 1"},
		},
		{
			name:    "list_games",
			handler: client.handleListGames,
			want:    []string{"Live Games (1)", "game-123", "alice (white) vs bob (black)"},
		},
		{
			name:    "get_game",
			handler: client.handleGetGame,
			args:    map[string]interface{}{"game_id": "game-123"},
			want:    []string{"Game: game-123", "White: alice\n", "Black: bob (disconnected)", engine.StartingPosition},
		},
		{
			name:    "lobby_status",
			handler: client.handleLobbyStatus,
			want:    []string{"Waiting Players (1)", "1. carol (time control: any"},
		},
		{
			name:    "protocol_instructions",
			handler: client.handleProtocolInstructions,
			want:    []string{"requestMatch", "rejoin", "game is over"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if args == nil {
				args = map[string]interface{}{}
			}
			result, err := tt.handler(ctx, toolRequest(tt.name, args))
			if err != nil {
				t.Fatalf("%s failed: %v", tt.name, err)
			}
			if result.IsError {
				t.Fatalf("%s returned a tool error: %s", tt.name, resultText(t, result))
			}
			text := resultText(t, result)
			for _, want := range tt.want {
				if !strings.Contains(text, want) {
					t.Errorf("Expected %q in output, got: %s", want, text)
				}
			}
		})
	}
}

func TestClient_GetGameErrors(t *testing.T) {
	client := NewClient(newFakeAPI(t).URL)
	ctx := context.Background()

	t.Run("missing argument", func(t *testing.T) {
		result, err := client.handleGetGame(ctx, toolRequest("get_game", map[string]interface{}{}))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("Expected a tool error")
		}
	})

	t.Run("unknown game", func(t *testing.T) {
		result, err := client.handleGetGame(ctx, toolRequest("get_game", map[string]interface{}{"game_id": "missing"}))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !result.IsError || !strings.Contains(resultText(t, result), "game not found") {
			t.Errorf("Expected game not found error, got %+v", result)
		}
	})

	t.Run("escapes the game id", func(t *testing.T) {
		paths := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths <- r.URL.EscapedPath()
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "game not found"})
		}))
		defer server.Close()

		if _, err := NewClient(server.URL).handleGetGame(ctx, toolRequest("get_game", map[string]interface{}{"game_id": "a/b?c"})); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if gotPath := <-paths; gotPath != "/api/games/a%2Fb%3Fc" {
			t.Errorf("Expected escaped path, got %s", gotPath)
		}
	})
}
