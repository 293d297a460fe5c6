package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wricardo/mcp-training/chesslobby/game/session"
	"github.com/wricardo/mcp-training/chesslobby/transport/websocket"
	"go.uber.org/zap"
)

// Server represents the HTTP API server
type Server struct {
	manager *session.Manager
	hub     *websocket.Hub
	router  *mux.Router
	logger  *zap.Logger
}

// NewServer creates a new API server
func NewServer(manager *session.Manager, hub *websocket.Hub, logger *zap.Logger) *Server {
	s := &Server{
		manager: manager,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Routes sit on the root router: a method mismatch inside a subrouter
	// is reported as 404.
	s.router.HandleFunc("/api/health", s.handleHealth).Methods("GET")

	// Read-only views of live games and the lobby
	s.router.HandleFunc("/api/games", s.handleListGames).Methods("GET")
	s.router.HandleFunc("/api/games/{id}", s.handleGetGame).Methods("GET")
	s.router.HandleFunc("/api/lobby", s.handleLobby).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.hub.ServeWS)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// logRequests logs every request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.hub.Health())
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games := s.manager.Games()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"games": games,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	game, err := s.manager.Game(gameID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrGameNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	queue := s.manager.Queue()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(queue),
		"queue": queue,
	})
}
