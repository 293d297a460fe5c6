// Command chesslobby starts the chess matchmaking server.
//
// It supports three commands:
//  1. "serve" (default) – runs the HTTP server exposing the WebSocket endpoint, the read-only API and an /mcp endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP server if none is available
//  3. "validate" – checks the effective configuration without starting anything
//
// Settings come from the environment (optionally via a .env file) and can be
// overridden with flags. ngrok tunneling is available for easy external
// access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/chesslobby/api"
	"github.com/wricardo/mcp-training/chesslobby/game/config"
	"github.com/wricardo/mcp-training/chesslobby/game/session"
	"github.com/wricardo/mcp-training/chesslobby/transport/mcp"
	"github.com/wricardo/mcp-training/chesslobby/transport/websocket"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Chess Lobby Server"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newCommand builds the command tree. Running without a subcommand serves.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "chesslobby",
		Usage:   AppName,
		Version: Version,
		Flags:   serverFlags(),
		Action:  runServe,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with WebSocket, API and MCP endpoint",
				Flags:   serverFlags(),
				Action:  runServe,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server against an existing or internal HTTP server",
				Flags: append(serverFlags(), &cli.StringFlag{
					Name:  "api-url",
					Usage: "Base URL of a running server (default: probe host:port, else start one)",
				}),
				Action: runStdioMCP,
			},
			{
				Name:   "validate",
				Usage:  "Validate the effective configuration and print it",
				Flags:  serverFlags(),
				Action: runValidate,
			},
		},
	}
}

// serverFlags returns the flags overriding environment configuration.
func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
		&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		&cli.StringSliceFlag{Name: "allowed-origin", Usage: "Allowed WebSocket origin (repeatable)"},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel"},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (or use NGROK_AUTHTOKEN env var)"},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)"},
	}
}

// loadConfig reads the environment and applies explicitly set flags.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("allowed-origin") {
		cfg.AllowedOrigins = cmd.StringSlice("allowed-origin")
	}
	if cmd.IsSet("ngrok") {
		cfg.NgrokEnabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		cfg.NgrokAuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.NgrokDomain = cmd.String("ngrok-domain")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runValidate loads the configuration the server would use and prints it.
func runValidate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "Configuration OK\n\n")
	fmt.Fprintf(out, "  Address:          %s\n", cfg.Addr())
	fmt.Fprintf(out, "  Debug:            %t\n", cfg.Debug)
	fmt.Fprintf(out, "  Allowed origins:  %s\n", originsString(cfg.AllowedOrigins))
	fmt.Fprintf(out, "  Max message size: %d bytes\n", cfg.MaxMessageSize)
	fmt.Fprintf(out, "  Rate limit:       %g/s (burst %d)\n", cfg.RateLimit, cfg.RateBurst)
	fmt.Fprintf(out, "  Send buffer:      %d messages\n", cfg.SendBuffer)
	fmt.Fprintf(out, "  Usernames:        %d-%d characters\n", cfg.UsernameMinLength, cfg.UsernameMaxLength)
	fmt.Fprintf(out, "  Start position:   %s\n", cfg.StartPosition)
	fmt.Fprintf(out, "  Ngrok:            %t\n", cfg.NgrokEnabled)
	return nil
}

func originsString(origins []string) string {
	if len(origins) == 0 {
		return "any"
	}
	return strings.Join(origins, ", ")
}

// newLogger returns a development logger in debug mode and a production
// logger otherwise. Both write to stderr.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildServer wires the manager, hub and HTTP routes. The caller runs the hub.
func buildServer(cfg *config.Config, logger *zap.Logger, baseURL string) (http.Handler, *websocket.Hub) {
	manager := session.NewManager(
		session.WithLogger(logger),
		session.WithStartPosition(cfg.StartPosition),
		session.WithUsernamePolicy(session.UsernamePolicy{
			MinLength: cfg.UsernameMinLength,
			MaxLength: cfg.UsernameMaxLength,
		}),
	)
	hub := websocket.NewHub(manager, cfg, logger)
	apiServer := api.NewServer(manager, hub, logger)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcp.NewClient(baseURL)))

	return mainRouter, hub
}

// mcpHandler serves MCP JSON-RPC messages over plain HTTP POST.
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runServe starts the HTTP server and, when enabled, an ngrok tunnel. It
// blocks until SIGINT or SIGTERM.
func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.Addr()
	handler, hub := buildServer(cfg, logger, fmt.Sprintf("http://%s", addr))
	go hub.Run(ctx)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("starting server", zap.String("app", AppName), zap.String("version", Version))

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("websocket", fmt.Sprintf("ws://%s/ws", addr)),
			zap.String("api", fmt.Sprintf("http://%s/api", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
			stop()
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cfg, handler, logger)
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("server stopped")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// runNgrok serves handler through an ngrok tunnel until ctx is cancelled.
func runNgrok(ctx context.Context, cfg *config.Config, handler http.Handler, logger *zap.Logger) {
	if cfg.NgrokAuthToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		logger.Info("using custom ngrok domain", zap.String("domain", cfg.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuthToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	ngrokServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		ngrokServer.Close()
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("websocket", url+"/ws"),
		zap.String("mcp", url+"/mcp"))

	if err := ngrokServer.Serve(tun); err != nil && err != http.ErrServerClosed {
		logger.Warn("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses a server at --api-url or
// host:port when one answers; otherwise it starts an internal HTTP server on
// a random loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	baseURL := cmd.String("api-url")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s", cfg.Addr())
	}

	if apiAvailable(baseURL) {
		logger.Info("external API server found, using it for MCP", zap.String("url", baseURL))
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())

		handler, hub := buildServer(cfg, logger, baseURL)
		hubCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go hub.Run(hubCtx)

		httpServer := &http.Server{Handler: handler}
		defer httpServer.Close()
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()

		logger.Info("internal HTTP server started", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a server answers the health endpoint at baseURL.
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
