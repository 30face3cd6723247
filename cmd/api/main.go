package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"classtrack/internal/attendance"
	"classtrack/internal/config"
	"classtrack/internal/course"
	"classtrack/internal/httpapi"
	"classtrack/internal/identity"
	"classtrack/internal/realtime"
	"classtrack/internal/store"
	"classtrack/internal/user"
)

func main() {
	cfg := config.Load()

	if !cfg.Dev() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewDB(cfg.DatabaseURL)
	switch {
	case err != nil && db == nil:
		return fmt.Errorf("open database: %w", err)
	case err != nil:
		// Endpoints stay gated by the readiness middleware until the store
		// comes back; the process itself starts regardless.
		log.Printf("warning: db not reachable: %v", err)
	default:
		if err := store.Migrate(db.Client); err != nil {
			return err
		}
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var bus realtime.Bus
	if cfg.BusBackend == "redis" {
		bus = realtime.NewRedisBus(redisClient.Client, "classtrack:events")
	} else {
		bus = realtime.NewInMemoryBus(64)
	}

	hub := realtime.NewHub()
	if err := hub.Run(ctx, bus); err != nil {
		return err
	}

	users := user.NewRepository(db.Client)
	courses := course.NewRepository(db.Client)
	records := attendance.NewRepository(db.Client)
	att := attendance.NewService(records, courses, users, realtime.NewBusPublisher(bus))

	var resolver identity.Resolver
	if cfg.ProviderURL != "" {
		resolver = identity.NewProviderResolver(users, identity.NewProviderClient(cfg.ProviderURL, cfg.ProviderTimeout))
		log.Printf("identity: external provider at %s", cfg.ProviderURL)
	} else {
		resolver = identity.NewLocalResolver(users, cfg.JWTSigningKey, cfg.JWTIssuer)
		log.Println("identity: local signed tokens")
	}

	server := httpapi.NewServer(cfg, db, redisClient, att, courses, users, resolver, hub)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}
