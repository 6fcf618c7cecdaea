package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/adi-253/Talkie/relay/internal/config"
	"github.com/adi-253/Talkie/relay/internal/handlers"
	"github.com/adi-253/Talkie/relay/internal/relay"
	"github.com/adi-253/Talkie/relay/internal/services"
	"github.com/adi-253/Talkie/relay/internal/store"
	"github.com/adi-253/Talkie/relay/internal/websocket"
)

const uploadsPath = "/uploads/"

func main() {
	// Load configuration from environment
	cfg := config.Load()

	db, err := store.Open(store.Options{Path: cfg.DBPath})
	if err != nil {
		log.Fatalf("Failed to open message store: %v", err)
	}
	messageService := services.NewMessageService(store.NewMessageStore(db))

	registry, redisClient, err := newRegistry(cfg)
	if err != nil {
		log.Fatalf("Failed to set up room registry: %v", err)
	}

	// The hub is the single event loop; the router decides what each event does
	hub := websocket.NewHub()
	hub.UseRouter(relay.NewRouter(registry, messageService, hub, relay.Options{
		HistoryLimit: cfg.HistoryLimit,
	}))
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	// Start background cleanup worker for abandoned uploads
	cleanupService := services.NewCleanupService(cfg.UploadDir, cfg.UploadSweepInterval, cfg.UploadPartTTL)
	go cleanupService.Start()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(func(ctx context.Context) error { return store.Ping(ctx, db) }, hub)
	roomHandler := handlers.NewRoomHandler(registry)
	messageHandler := handlers.NewMessageHandler(messageService)
	uploadHandler := handlers.NewUploadHandler(cfg.UploadDir, uploadsPath, cfg.MaxUploadBytes)
	wsHandler := websocket.NewHandler(hub, cfg.CorsOrigins)

	// Set up router with middleware
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// CORS configuration - reads from CORS_ORIGINS env var
	log.Printf("CORS allowed origins: %v", cfg.CorsOrigins)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/ws", wsHandler.ServeWS)
	r.Handle(uploadsPath+"*", http.StripPrefix(uploadsPath, http.FileServer(http.Dir(cfg.UploadDir))))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", uploadHandler.Upload)
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", roomHandler.ListRooms)
			r.Get("/{id}", roomHandler.GetRoom)
			// History read for clients without a socket
			r.Get("/{id}/messages", messageHandler.GetMessages)
		})
	})

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Relay starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"relay": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				if err := srv.Shutdown(ctx); err != nil {
					log.Printf("HTTP server shutdown: %v", err)
				}
				stopHub()
				select {
				case <-hub.Done():
				case <-ctx.Done():
					return ctx.Err()
				}
				return closeStores(db, redisClient)
			},
			"upload-cleanup": func(ctx context.Context) error {
				cleanupService.Stop()
				return nil
			},
		},
	)

	exitCode := <-wait
	log.Printf("Relay exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// newRegistry builds the participant registry selected by REGISTRY_BACKEND.
// The redis client is nil for the in-memory registry.
func newRegistry(cfg *config.Config) (relay.Registry, *redis.Client, error) {
	if cfg.RegistryBackend != config.RegistryRedis {
		log.Println("Using in-memory room registry")
		return services.NewMemoryRegistry(), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis at %s: %w", cfg.RedisAddr, err)
	}

	registry := services.NewRedisRegistry(client, cfg.RedisPrefix)
	// presence does not survive a restart
	if err := registry.Reset(ctx); err != nil {
		client.Close()
		return nil, nil, err
	}
	log.Printf("Using Redis room registry at %s", cfg.RedisAddr)
	return registry, client, nil
}

func closeStores(db *gorm.DB, redisClient *redis.Client) error {
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Redis close: %v", err)
		}
	}
	return store.Close(db)
}
