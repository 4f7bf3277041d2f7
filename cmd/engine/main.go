package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/rawblock/fraudnet-engine/internal/alerting"
	"github.com/rawblock/fraudnet-engine/internal/api"
	"github.com/rawblock/fraudnet-engine/internal/batch"
	"github.com/rawblock/fraudnet-engine/internal/db"
	"github.com/rawblock/fraudnet-engine/pkg/models"
)

func main() {
	log.Println("Starting fraudnet-engine (Microservice: fraud-ring-analysis)...")

	// ─── Required Environment Variables ─────────────────────────────────
	// All credentials MUST come from environment variables. No fallback
	// defaults for security-sensitive values.
	// ────────────────────────────────────────────────────────────────────

	dbUrl := requireEnv("DATABASE_URL")

	dbConn, err := db.Connect(dbUrl)
	if err != nil {
		log.Printf("Warning: failed to connect to PostgreSQL, continuing without persistence. Error: %v", err)
	} else {
		defer dbConn.Close()
		if err := dbConn.InitSchema(); err != nil {
			log.Printf("Warning: DB schema init failed: %v", err)
		}
	}

	// Setup WebSocket Hub
	wsHub := api.NewHub()
	go wsHub.Run()

	alertMgr := alerting.NewManager(func(alert models.Alert) {
		payload, err := json.Marshal(alert)
		if err != nil {
			log.Printf("failed to marshal alert: %v", err)
			return
		}
		wsHub.Broadcast(payload)
		log.Printf("[ALERT] %s ring %s detected: risk %.1f", alert.Severity, alert.RingID, alert.RiskScore)
	})
	if webhookURL := os.Getenv("ALERT_WEBHOOK_URL"); webhookURL != "" {
		alertMgr.RegisterWebhook("default", webhookURL, getEnvOrDefault("ALERT_WEBHOOK_MIN_SEVERITY", "high"), nil)
	}

	var rescanner *batch.Rescanner
	if dbConn != nil {
		rescanner = batch.NewRescanner(dbConn.LoadRunTransactions, dbConn.PersistRescanResult, alertMgr)
	}

	r := api.SetupRouter(dbConn, alertMgr, wsHub, rescanner)

	port := getEnvOrDefault("PORT", "5339")

	log.Printf("Engine running on :%s\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// requireEnv reads a required environment variable and exits if it is not set.
// This prevents the binary from starting with missing critical configuration.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set.", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
