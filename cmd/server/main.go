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

	"memoboard/internal/config"
	"memoboard/internal/events"
	"memoboard/internal/handler"
	"memoboard/internal/markdown"
	"memoboard/internal/middleware"
	"memoboard/internal/repository"
	"memoboard/internal/service"
	"memoboard/internal/storage"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		log.Fatalf("Failed to connect to CouchDB: %v", err)
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to check database existence: %v", err)
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			log.Fatalf("Failed to create database: %v", err)
		}
		log.Printf("Created database: %s", cfg.Database.Name)
	}

	memoRepo := repository.NewMemoRepository(client, cfg.Database.Name)
	if err := memoRepo.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	store, err := storage.New(cfg.Storage.UploadDir, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatalf("Failed to prepare upload storage: %v", err)
	}

	hub := events.NewHub(
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
	)
	go hub.Run()

	renderer := markdown.New()

	authService := service.NewAuthService(
		cfg.Admin.Username,
		cfg.Admin.Password,
		cfg.JWT.Secret,
		cfg.JWT.Expiration,
		cfg.JWT.RenewWithin,
	)
	memoService := service.NewMemoService(memoRepo, renderer, hub)

	authHandler := handler.NewAuthHandler(authService)
	memoHandler := handler.NewMemoHandler(memoService)
	resourceHandler := handler.NewResourceHandler(store)
	eventsHandler := handler.NewEventsHandler(hub)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")

	// Read access is public, and so is memo creation by current design.
	api.HandleFunc("/memos", memoHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/memos", memoHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/memos/date/{date}", memoHandler.ListByDate).Methods("GET", "OPTIONS")
	api.HandleFunc("/memos/stats/{year}/{month}", memoHandler.Stats).Methods("GET", "OPTIONS")

	api.HandleFunc("/resources", resourceHandler.Upload).Methods("POST", "OPTIONS")

	api.HandleFunc("/events/ws", eventsHandler.HandleConnection)

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(authService))

	protected.HandleFunc("/memos/{id}", memoHandler.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/memos/{id}", memoHandler.Delete).Methods("DELETE", "OPTIONS")

	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(store.Root()))),
	).Methods("GET", "HEAD")

	r.HandleFunc("/health", healthHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting memoboard server on %s (env: %s)", addr, cfg.Server.Env)
		log.Printf("Connected to CouchDB at %s:%s", cfg.Database.Host, cfg.Database.Port)
		log.Printf("Serving uploads from %s at %s/uploads/", store.Root(), cfg.Storage.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"memoboard"}`))
}
