package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zon-format/docsearch/internal/config"
	"github.com/zon-format/docsearch/internal/server"
	"github.com/zon-format/docsearch/internal/telemetry"
	"github.com/zon-format/docsearch/tools"
)

const (
	version     = "1.0.0"
	serverName  = "zon-docsearch"
	description = "Documentation search for the ZON format site"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	mcpMode := len(os.Args) > 1 && os.Args[1] == "--mcp"
	if mcpMode {
		// MCP uses stdout for protocol
		log.SetOutput(os.Stderr)
	}
	log.Printf("%s v%s starting...", serverName, version)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	a.start()

	if mcpMode {
		err = runMCP(a)
	} else {
		err = runHTTP(cfg, a)
	}

	if cerr := a.close(); cerr != nil {
		log.Printf("Error closing doc search: %v", cerr)
	}
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// runMCP serves the documentation tools over stdio
func runMCP(a *app) error {
	server := createMCPServer()
	if err := tools.RegisterDocSearchTools(server, a.docSearch()); err != nil {
		return fmt.Errorf("failed to register doc search tools: %w", err)
	}
	log.Printf("✓ Server ready and waiting for connections")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, &mcp.StdioTransport{})
}

// createMCPServer initializes the MCP server
func createMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		&mcp.ServerOptions{
			Instructions: description,
		},
	)

	log.Printf("Server initialized: %s v%s", serverName, version)
	return server
}

// runHTTP serves the search API until SIGINT or SIGTERM
func runHTTP(cfg *config.Config, a *app) error {
	shutdownTracer, err := telemetry.InitTracer(serverName, version, cfg.OTLPEndpoint)
	if err != nil {
		log.Printf("Warning: Failed to initialize tracing: %v", err)
		shutdownTracer = func() {}
	}
	defer shutdownTracer()

	shutdownMeter, err := telemetry.InitMeter(serverName, version, cfg.OTLPEndpoint)
	if err != nil {
		log.Printf("Warning: Failed to initialize metrics: %v", err)
		shutdownMeter = func() {}
	}
	defer shutdownMeter()

	gin.SetMode(cfg.GinMode)

	router := server.NewRouter(server.Options{
		ServiceName: serverName,
		Searcher:    a.service,
		Documents:   len(a.site.Documents()),
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     a.newLimiter(cfg),
		Logger:      cfg.GinMode != gin.TestMode,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("✓ Listening on :%s (engine=%s)", cfg.Port, cfg.SearchEngine)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exited")
	return nil
}

// newLimiter prefers a shared Redis counter and falls back to an in-process
// bucket. The Redis client is closed with the app.
func (a *app) newLimiter(cfg *config.Config) server.Limiter {
	if cfg.RedisURL != "" {
		client, err := config.NewRedisClient(cfg)
		if err == nil {
			a.redis = client
			log.Printf("✓ Rate limiting via Redis (%d requests per %v)", cfg.RateLimitRequests(), cfg.RateLimitWindow)
			return server.NewRedisLimiter(client, cfg.RateLimitRequests(), cfg.RateLimitWindow)
		}
		log.Printf("Warning: Redis unavailable, using in-memory rate limiting: %v", err)
	}
	return server.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
}
