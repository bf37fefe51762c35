package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/acmetrans/mgcp/internal/config"
	"github.com/acmetrans/mgcp/internal/db"
	"github.com/acmetrans/mgcp/internal/documents"
	"github.com/acmetrans/mgcp/internal/server"
	"github.com/acmetrans/mgcp/internal/services"
)

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connection: %v", err)
	}
	if *migrateOnlyFlag {
		log.Println("migrations completed; exiting as requested")
		return
	}

	// The cost configuration row is read exactly once, here; every component
	// gets the value injected.
	pricing, err := db.LoadPricing(conn, cfg.Pricing)
	if err != nil {
		log.Fatalf("loading cost configuration: %v", err)
	}

	gen := documents.NewGenerator(cfg.DocumentDir, cfg.DocumentFormat, pricing)
	svc := services.NewProposalService(conn, gen, pricing, cfg.BaseURL, services.Recipients{
		Operations: cfg.OperationsEmail,
		Director:   cfg.DirectorEmail,
		Audit:      cfg.AuditEmail,
	})

	log.Printf("Starting server env=%s port=%s format=%s", cfg.Env, cfg.Port, cfg.DocumentFormat)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: withLogging(server.New(conn, cfg, svc))}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
