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
	"github.com/shikshapay/emi-service/internal/config"
	"github.com/shikshapay/emi-service/internal/handler"
	"github.com/shikshapay/emi-service/internal/integrations/ratefeed"
	"github.com/shikshapay/emi-service/internal/models"
	"github.com/shikshapay/emi-service/internal/repository"
	"github.com/shikshapay/emi-service/internal/scheduler"
	"github.com/shikshapay/emi-service/internal/service"
	"github.com/shikshapay/emi-service/internal/utils/email"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file loaded: %v", err)
	}

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize storage
	var store repository.Store
	if cfg.DBConn != "" {
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("Failed to ping database: %v", err)
		}
		store = repository.NewPostgresStore(db)
	} else {
		logger.Warn("DB_CONN not set, using in-memory store")
		store = repository.NewMemoryStore()
	}

	// Initialize layers
	channels := map[string]service.Channel{
		models.ChannelEmail: email.NewSender(cfg, logger),
	}
	svc := service.NewService(store, logger, cfg, channels)
	h := handler.NewHandler(svc)
	rateClient := ratefeed.NewClient(cfg, logger)

	// Start the nightly reminder sweep
	sched := scheduler.New(svc, logger)
	if err := sched.Start(cfg.ReminderCron); err != nil {
		logger.Fatalf("Failed to start reminder scheduler: %v", err)
	}
	defer sched.Stop()

	// Setup router
	r := mux.NewRouter()
	r.HandleFunc("/plans", h.CreatePlan).Methods("POST")
	r.HandleFunc("/plans/{planID}/schedule", h.GetSchedule).Methods("GET")
	r.HandleFunc("/plans/{planID}/installments/{seq}/payment", h.ConfirmPayment).Methods("POST")
	r.HandleFunc("/plans/{planID}/installments/{seq}/reminders", h.SendReminder).Methods("POST")
	r.HandleFunc("/installments", h.QueryInstallments).Methods("GET")
	r.HandleFunc("/installments/export", h.ExportInstallments).Methods("GET")
	// Base lending rate endpoint
	r.HandleFunc("/base-rate", func(w http.ResponseWriter, r *http.Request) {
		rate, err := rateClient.GetBaseRate()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get base rate: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]float64{"base_rate": rate})
	}).Methods("GET")

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
