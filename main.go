// Command haunted-board starts the Haunted Board puzzle server.
//
// It supports three modes:
//  1. "server" (default) runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "tui" plays the level list in the terminal against the in-process service
//
// Flags control host/port, level, session and progress storage, debug logging,
// version output, and optional ngrok tunneling for external access during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
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
	"github.com/wricardo/haunted-board/api"
	"github.com/wricardo/haunted-board/game/levels"
	"github.com/wricardo/haunted-board/game/progress"
	"github.com/wricardo/haunted-board/game/service"
	"github.com/wricardo/haunted-board/game/session"
	"github.com/wricardo/haunted-board/transport/mcp"
	"github.com/wricardo/haunted-board/transport/websocket"
	"github.com/wricardo/haunted-board/tui"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Haunted Board Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	levelsDir    = flag.String("levels-dir", envDefault("LEVELS_DIR", "levels"), "Directory containing level files")
	defaultLevel = flag.String("default-level", os.Getenv("DEFAULT_LEVEL"), "Level played by sessions created without a level id")
	sessionsDir  = flag.String("sessions-dir", envDefault("SESSIONS_DIR", "sessions"), "Directory for persisted sessions (empty disables persistence)")
	progressFile = flag.String("progress-file", envDefault("PROGRESS_FILE", "progress.json"), "Progress file (empty keeps progress in memory)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// envDefault returns the environment variable key, or fallback when it is unset.
func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  tui              Play in the terminal\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090         # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp          # Run MCP stdio server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s mcp -port 9090     # Run MCP stdio server with internal HTTP on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -levels-dir ./my-levels tui\n", os.Args[0])
	}
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		// Only log if it's not a "file not found" error
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	// Show version if requested
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	// Setup logging
	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	// Determine mode from command
	args := flag.Args()
	mode := "server" // default
	if len(args) > 0 {
		mode = args[0]
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	// Initialize services
	gameService, err := initializeServices()
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		// Run MCP stdio server with internal HTTP server
		runStdioMCPWithInternalServer(gameService)
		return

	case "server", "http":
		// Run HTTP server with API, WebSocket, and MCP endpoint
		runHTTPServer(gameService)

	case "tui":
		// The terminal owns stdout; keep logs out of the way
		log.SetOutput(io.Discard)
		if err := tui.Run(context.Background(), gameService); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			os.Exit(1)
		}

	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default), 'stdio-mcp' or 'tui'", mode)
	}
}

// runHTTPServer serves the REST API, the spectator WebSocket and the /mcp
// endpoint until SIGINT or SIGTERM, optionally through an ngrok tunnel.
func runHTTPServer(gameService service.PuzzleService) {
	addr := fmt.Sprintf("%s:%d", *host, *port)
	router := newRouter(gameService, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logEndpoints("http://"+addr, "ws://"+addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if settings := resolveTunnel(); settings.enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveTunnel(ctx, settings, router)
		}()
	}

	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
}

// newRouter mounts the API (with a running hub) at / and the MCP tools at /mcp.
// The MCP tools call back into the API at baseURL.
func newRouter(gameService service.PuzzleService, baseURL string) *http.ServeMux {
	hub := websocket.NewHub()
	go hub.Run()

	router := http.NewServeMux()
	router.Handle("/", api.NewServer(gameService, hub))
	router.Handle("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return router
}

// mcpHandler answers single JSON-RPC MCP messages posted to it
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
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
		data, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

func logEndpoints(httpBase, wsBase string) {
	log.Printf("REST API: %s/api", httpBase)
	log.Printf("WebSocket: %s/ws?session=<session_id>", wsBase)
	log.Printf("MCP endpoint: %s/mcp", httpBase)
}

// tunnelSettings is the resolved ngrok configuration
type tunnelSettings struct {
	enabled   bool
	authToken string
	domain    string
}

// resolveTunnel merges the ngrok flags with NGROK_ENABLED, NGROK_AUTHTOKEN
// (or NGROK_AUTH_TOKEN) and NGROK_DOMAIN; flags win.
func resolveTunnel() tunnelSettings {
	s := tunnelSettings{
		enabled:   *ngrokEnabled,
		authToken: *ngrokAuth,
		domain:    *ngrokDomain,
	}
	if !s.enabled {
		v := os.Getenv("NGROK_ENABLED")
		s.enabled = v == "true" || v == "1"
	}
	if s.authToken == "" {
		s.authToken = envDefault("NGROK_AUTHTOKEN", os.Getenv("NGROK_AUTH_TOKEN"))
	}
	if s.domain == "" {
		s.domain = os.Getenv("NGROK_DOMAIN")
	}
	return s
}

// serveTunnel exposes handler through ngrok until ctx is cancelled
func serveTunnel(ctx context.Context, s tunnelSettings, handler http.Handler) {
	if s.authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	var endpoint ngrokConfig.Tunnel
	if s.domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(s.domain))
		log.Printf("Using custom ngrok domain: %s", s.domain)
	} else {
		endpoint = ngrokConfig.HTTPEndpoint()
	}

	log.Println("Starting ngrok tunnel...")
	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(s.authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	url := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", url)
	logEndpoints(url, strings.Replace(url, "https://", "wss://", 1))

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// initializeServices wires the level, session and progress stores and the puzzle service.
// It also starts background routines that prune stale and deleted sessions.
func initializeServices() (service.PuzzleService, error) {
	levelManager, err := levels.NewManager(*levelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}
	log.Printf("Loaded %d levels from %s", levelManager.Count(), *levelsDir)
	if *defaultLevel != "" {
		if err := levelManager.SetDefault(*defaultLevel); err != nil {
			return nil, fmt.Errorf("failed to set default level: %w", err)
		}
	}

	progressStore, err := progress.NewFileStore(*progressFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open progress store: %w", err)
	}

	sessionManager := session.NewManager()
	if *sessionsDir != "" {
		persistence, err := session.NewFilePersistence(*sessionsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		sessionManager = session.NewManagerWithPersistence(persistence)

		// Load persisted sessions on startup
		if err := sessionManager.LoadPersistedSessions(); err != nil {
			log.Printf("Warning: Failed to load persisted sessions: %v", err)
		}
	}

	gameService := service.NewPuzzleService(sessionManager, levelManager, progressStore)

	// Start session cleanup routine
	go sessionCleanupRoutine(sessionManager)

	// Start filesystem sync routine
	if *sessionsDir != "" {
		go filesystemSyncRoutine(sessionManager)
	}

	return gameService, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the provided retention window.
func sessionCleanupRoutine(manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		removed := manager.CleanupExpiredSessions(24 * time.Hour)
		if removed > 0 {
			log.Printf("Cleaned up %d expired sessions", removed)
		}
	}
}

// filesystemSyncRoutine periodically syncs in-memory sessions with filesystem state.
// It removes sessions from memory when their corresponding files are deleted.
func filesystemSyncRoutine(manager *session.Manager) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		pruned := manager.PruneDeleted()
		for _, id := range pruned {
			log.Printf("Pruned session %s from memory (file deleted)", id)
		}
		if len(pruned) > 0 {
			log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", len(pruned))
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server against an API
// already listening on the configured port, or against an internal API bound
// to a random loopback port when there is none.
func runStdioMCPWithInternalServer(gameService service.PuzzleService) {
	externalURL := fmt.Sprintf("http://localhost:%d", *port)
	baseURL := externalURL

	if apiAvailable(externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Failed to get available port: %v", err)
		}
		baseURL = "http://" + listener.Addr().String()
		log.Printf("No external API server found, starting internal HTTP server on %s", baseURL)

		hub := websocket.NewHub()
		go hub.Run()
		internal := &http.Server{Handler: api.NewServer(gameService, hub)}
		go func() {
			if err := internal.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
	}

	log.Printf("MCP stdio server ready (API at %s)", baseURL)
	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		log.Fatalf("MCP stdio server error: %v", err)
	}
}

// apiAvailable reports whether a Haunted Board API answers /health at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
