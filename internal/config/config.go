package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration read from the environment.
type Config struct {
	MongoURI     string
	Database     string
	Collection   string
	Port         string
	ModelPath    string
	MetadataPath string
	UploadDir    string
	ResultDir    string
	InferTimeout time.Duration
	StoreTimeout time.Duration
	InferWorkers int
}

// Load reads configuration from the environment. A .env file is
// optional; real deployments set the environment directly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		MongoURI:     os.Getenv("MONGO_URI"),
		Database:     getenv("GAUGE_DB", "gauge_db"),
		Collection:   getenv("GAUGE_COLLECTION", "gauge01"),
		Port:         getenv("PORT", "5000"),
		ModelPath:    getenv("MODEL_PATH", "models/gauge-cls.onnx"),
		MetadataPath: getenv("MODEL_METADATA", "models/gauge-cls.json"),
		UploadDir:    getenv("UPLOAD_DIR", "static/uploads"),
		ResultDir:    getenv("RESULT_DIR", "static/results"),
		InferTimeout: getDuration("INFER_TIMEOUT", 30*time.Second),
		StoreTimeout: getDuration("STORE_TIMEOUT", 5*time.Second),
		InferWorkers: getInt("INFER_WORKERS", 1),
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
