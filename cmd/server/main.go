package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/SNS-EUGENE/busansuper-payments/internal/api"
	"github.com/SNS-EUGENE/busansuper-payments/internal/discount"
	"github.com/SNS-EUGENE/busansuper-payments/internal/engine"
	"github.com/SNS-EUGENE/busansuper-payments/internal/feecatalog"
	"github.com/SNS-EUGENE/busansuper-payments/internal/ingestion"
	"github.com/SNS-EUGENE/busansuper-payments/internal/repository"
)

func main() {
	log := newLogger()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, relying on system env")
	}

	port := envDefault("PORT", "8080")
	dbPath := envDefault("DB_PATH", "busansuper.db")
	dataDir := envDefault("DATA_DIR", "data")

	log.WithField("path", dbPath).Info("initializing database")
	db, err := repository.InitDB(dbPath)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}
	defer db.Close()

	runRepo := repository.NewRunRepo(db)

	// The fee catalog and discount policy are immutable configuration,
	// injected once at engine construction.
	catalog := feecatalog.NewCatalog()
	policy := discount.DefaultPolicy()
	eng := engine.New(catalog, policy, log)

	ingestionSvc := ingestion.NewService(dataDir, log)

	router := api.NewRouter(eng, ingestionSvc, runRepo, log)

	log.WithFields(logrus.Fields{
		"port":     port,
		"data_dir": dataDir,
	}).Info("Busan Super settlement reconciler listening")
	log.Info("endpoints:")
	log.Info("  POST   /api/v1/runs")
	log.Info("  GET    /api/v1/runs")
	log.Info("  GET    /api/v1/runs/{id}")
	log.Info("  GET    /api/v1/runs/{id}/vendors")
	log.Info("  GET    /api/v1/runs/{id}/unmatched")
	log.Info("  GET    /api/v1/vendors/top")

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if os.Getenv("LOG_FORMAT") == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}
	return log
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
