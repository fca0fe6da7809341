package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/roundtable-games/avalon/internal/config"
	"github.com/roundtable-games/avalon/internal/database"
	"github.com/roundtable-games/avalon/internal/engine"
	"github.com/roundtable-games/avalon/internal/httpapi"
	"github.com/roundtable-games/avalon/internal/lobby"
	"github.com/roundtable-games/avalon/internal/ratelimit"
	"github.com/roundtable-games/avalon/internal/store"
	"github.com/roundtable-games/avalon/internal/websocket"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Connect to PostgreSQL and bring the schema up to date.
	ctx := context.Background()
	dbPool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer dbPool.Close()
	log.Println("connected to database")

	if err := database.Migrate(ctx, dbPool, cfg.MigrationsDir); err != nil {
		log.Fatalf("database migrate: %v", err)
	}
	log.Println("migrations up to date")

	records := store.NewRecordStore(dbPool)

	// Role deals lean away from repeats unless the room opted into true
	// randomness.
	registry := lobby.NewRegistry(lobby.Options{
		VotekickThreshold: cfg.VotekickThreshold,
		NewShuffler: func(trueRandom bool) engine.Shuffler {
			if trueRandom {
				return &engine.UniformShuffler{}
			}
			return &engine.AntiRepeatShuffler{History: records}
		},
	})

	chatLimiter := ratelimit.NewInMemory(cfg.ChatRateLimit, cfg.ChatRateWindow)

	hub := websocket.NewHub()
	gameHandler := websocket.NewGameHandler(hub, registry, records, records, chatLimiter, websocket.GameHandlerConfig{
		ConfirmTimeout: cfg.ConfirmTimeout,
		RevealDelay:    cfg.RevealDelay,
		EphemeralTTL:   cfg.EphemeralTTL,
	})
	hub.SetHandler(gameHandler)
	go hub.Run()

	wsHandler := websocket.NewWSHandler(hub, registry, []byte(cfg.TokenSecret))

	router := httpapi.NewRouter(httpapi.Deps{
		Registry:       registry,
		Records:        records,
		WS:             wsHandler,
		TokenSecret:    []byte(cfg.TokenSecret),
		TokenExpiry:    cfg.TokenExpiry,
		RoomLimiter:    ratelimit.NewInMemory(cfg.RoomRateLimit, cfg.RoomRateWindow),
		AllowedOrigins: cfg.AllowedOrigins,
		PublicBaseURL:  cfg.PublicBaseURL,
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("round table backend listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
