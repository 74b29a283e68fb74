/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll versioning engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse environment and command-line flags (flags win)
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Start the activation scheduler
  5. Start server with graceful shutdown

CONFIGURATION:
  Environment variables (flags override):
    PAYROLL_PORT                HTTP server port (default: 8080)
    PAYROLL_DB                  SQLite database path (default: payroll.db)
    PAYROLL_SCHEDULER_ENABLED   Run the activation scheduler (default: true)
    PAYROLL_SCHEDULER_INTERVAL  Scheduler check interval (default: 1h)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the activation scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/payroll.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port without the scheduler
  PAYROLL_SCHEDULER_ENABLED=false ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Activation scheduler
  - store/sqlite/sqlite.go: Database implementation
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

	"github.com/caarlos0/env/v11"
	"github.com/tigearis/payroll-engine/api"
	"github.com/tigearis/payroll-engine/store/sqlite"
)

type config struct {
	Port              int           `env:"PAYROLL_PORT" envDefault:"8080"`
	DBPath            string        `env:"PAYROLL_DB" envDefault:"payroll.db"`
	SchedulerEnabled  bool          `env:"PAYROLL_SCHEDULER_ENABLED" envDefault:"true"`
	SchedulerInterval time.Duration `env:"PAYROLL_SCHEDULER_INTERVAL" envDefault:"1h"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to parse environment: %v", err)
	}

	// Flags override environment
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store)

	// Start activation scheduler
	scheduler := api.NewActivationScheduler(store, handler)
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.CheckInterval = cfg.SchedulerInterval
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
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
