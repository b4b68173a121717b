package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/cardvault/card-service/internal/config"
	"github.com/cardvault/card-service/internal/handler"
	"github.com/cardvault/card-service/internal/integrations/cbr"
	"github.com/cardvault/card-service/internal/middleware"
	"github.com/cardvault/card-service/internal/repository"
	"github.com/cardvault/card-service/internal/scheduler"
	"github.com/cardvault/card-service/internal/service"
	"github.com/cardvault/card-service/internal/utils/email"
	"github.com/cardvault/card-service/internal/vault"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	_ = godotenv.Load()
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	v, err := vault.New(cfg.EncryptionKey)
	if err != nil {
		logger.Fatalf("Failed to initialize vault: %v", err)
	}
	repo := repository.NewRepository(db)
	notifier := email.NewSender(cfg, logger)
	svc := service.NewService(repo, v, logger, cfg, nil, notifier)
	h := handler.NewHandler(svc, logger)
	cbrClient := cbr.NewClient(cfg, logger)

	// Start maintenance jobs
	sched := scheduler.New(repo, logger, nil)
	if err := sched.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/rates", func(w http.ResponseWriter, r *http.Request) {
		rates, err := cbrClient.GetRates()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get rates: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(rates)
	}).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/cards", h.ListCards).Methods("GET")
	authRouter.HandleFunc("/cards/{id:[0-9]+}/debit", h.Debit).Methods("POST")
	authRouter.HandleFunc("/cards/{id:[0-9]+}/top-up", h.TopUp).Methods("POST")
	authRouter.HandleFunc("/transfers", h.Transfer).Methods("POST")
	authRouter.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	authRouter.HandleFunc("/card-requests", h.ListRequests).Methods("GET")
	authRouter.HandleFunc("/card-requests/issue", h.RequestCardIssuance).Methods("POST")
	authRouter.HandleFunc("/card-requests/block", h.RequestCardBlock).Methods("POST")

	// Admin routes
	adminRouter := authRouter.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.RequireAdmin)
	adminRouter.HandleFunc("/cards", h.CreateCard).Methods("POST")
	adminRouter.HandleFunc("/cards/{id:[0-9]+}/status", h.SetCardStatus).Methods("PATCH")
	adminRouter.HandleFunc("/cards/{id:[0-9]+}/limits", h.SetCardLimits).Methods("PATCH")
	adminRouter.HandleFunc("/cards/{id:[0-9]+}", h.DeleteCard).Methods("DELETE")
	adminRouter.HandleFunc("/transactions", h.ListAllTransactions).Methods("GET")
	adminRouter.HandleFunc("/card-requests", h.ListAllRequests).Methods("GET")
	adminRouter.HandleFunc("/card-requests/{id:[0-9]+}", h.DecideRequest).Methods("PATCH")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
