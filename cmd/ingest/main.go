package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/andresuchdata/stockforecast/internal/config"
	"github.com/andresuchdata/stockforecast/internal/drive"
	"github.com/andresuchdata/stockforecast/internal/repository/postgres"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize Google Drive service
	driveService, err := drive.NewService(context.Background(), os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON"))
	if err != nil {
		log.Fatalf("Failed to initialize Google Drive service: %v", err)
	}

	// Initialize Database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Repositories
	productRepo := postgres.NewProductRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	// Initialize Services
	ingestService := drive.NewIngestService(driveService, productRepo, orderRepo)

	// Register routes
	r := mux.NewRouter()
	driveHandler := drive.NewHandler(driveService, ingestService)
	driveHandler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Ingest server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
