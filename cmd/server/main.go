package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storelink-nz/device-service/internal/config"
	"github.com/storelink-nz/device-service/internal/db"
	"github.com/storelink-nz/device-service/internal/db/repository"
	"github.com/storelink-nz/device-service/internal/directory"
	"github.com/storelink-nz/device-service/internal/router"
	"github.com/storelink-nz/device-service/internal/service"
	"github.com/storelink-nz/device-service/internal/websockets"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	database, err := db.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run database migrations
	if err := database.Migrate(cfg.Database); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize audit feed hub
	hub := websockets.NewHub()
	go hub.Run()

	// Wire repositories, the directory and the services
	repos := repository.NewFactory(database.DB)
	dir := directory.New(repos.User)

	staffJWT := service.JWTConfig{Secret: cfg.JWT.Secret, ExpiresIn: cfg.JWT.StaffExpiresIn}
	deviceJWT := service.JWTConfig{Secret: cfg.JWT.Secret, ExpiresIn: cfg.JWT.DeviceExpiresIn}

	codeService := service.NewCodeService(repos.Code)
	services := router.Services{
		Auth:       service.NewAuthService(dir, staffJWT),
		Code:       codeService,
		Device:     service.NewDeviceService(repos.Device, codeService),
		Assignment: service.NewAssignmentService(repos.Device, dir),
		Gateway:    service.NewGatewayService(repos.Device, dir, deviceJWT),
		Directory:  dir,
	}

	// Initialize router
	r := router.New(database, services, hub)

	// Create HTTP server
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
