/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the ledger engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, merge with config file
  2. Initialize SQLite store
  3. Start the mirror for the configured principal
  4. Create writer, delete coordinator, API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config     Path to TOML config file (optional)
  -port       HTTP server port (default: 8080)
  -db         SQLite database path (default: ledger.db)
              Use ":memory:" for in-memory database
  -tenant     Tenant root path prefix (required, or set in config)
  -principal  Account whose records to serve (required, or set in config)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the mirror and its subscriptions
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -tenant="apps/shop-demo" -principal="owner-1" -db="./data/ledger.db"

  # Run from a config file
  ./server -config=ledger.toml

SEE ALSO:
  - config/config.go: Config file format
  - api/server.go: Router configuration
  - mirror/mirror.go: Read-side cache
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/ledger-engine/api"
	"github.com/warp/ledger-engine/config"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/mirror"
	"github.com/warp/ledger-engine/store/sqlite"
	"github.com/warp/ledger-engine/writer"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "path to TOML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	tenantRoot := flag.String("tenant", "", "tenant root path prefix (overrides config)")
	principal := flag.String("principal", "", "account whose records to serve (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *tenantRoot != "" {
		cfg.TenantRoot = *tenantRoot
	}
	if *principal != "" {
		cfg.Principal = *principal
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Start the mirror for the configured principal
	m := mirror.New(store, cfg.TenantRoot)
	if err := m.Start(cfg.Principal); err != nil {
		log.Fatalf("Failed to start mirror: %v", err)
	}
	defer m.Stop()

	// Surface subscription failures in the log until shutdown
	logDone := make(chan struct{})
	defer close(logDone)
	go func() {
		for {
			select {
			case err := <-m.Errors():
				log.Printf("Mirror error: %v", err)
			case <-logDone:
				return
			}
		}
	}()

	// Initialize write side
	scope := ledger.Scope{TenantRoot: cfg.TenantRoot, Principal: cfg.Principal}
	w := writer.New(store, scope)
	deletes := writer.NewCoordinator(store, scope)

	// Create router
	handler := api.NewHandler(m, w, deletes)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", cfg.Port)
		log.Printf("📊 API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
