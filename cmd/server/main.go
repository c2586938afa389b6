package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gauge-api/internal/config"
	"gauge-api/internal/handlers"
	"gauge-api/internal/model"
	"gauge-api/internal/pipeline"
	"gauge-api/internal/store"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.MongoURI == "" {
		logger.Fatal("MONGO_URI is required")
	}

	engine, err := model.NewEngine(cfg.ModelPath, cfg.MetadataPath, cfg.InferWorkers)
	if err != nil {
		logger.Fatal("Failed to load classifier", zap.String("model", cfg.ModelPath), zap.Error(err))
	}
	defer engine.Close()

	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	records, err := store.NewMongoStore(connectCtx, cfg.MongoURI, cfg.Database, cfg.Collection, cfg.StoreTimeout)
	cancel()
	if err != nil {
		logger.Fatal("Failed to connect record store", zap.Error(err))
	}

	insp := pipeline.New(engine, records, cfg.UploadDir, cfg.ResultDir, cfg.InferTimeout, logger)
	handler := handlers.NewHandler(insp, records, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/upload", enableCORS(handler.Upload))
	mux.HandleFunc("/health", enableCORS(handler.Health))
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux}

	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("model", cfg.ModelPath),
			zap.Strings("classes", engine.Classes()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown", zap.Error(err))
	}
	if err := records.Close(shutdownCtx); err != nil {
		logger.Warn("Record store close", zap.Error(err))
	}
}
