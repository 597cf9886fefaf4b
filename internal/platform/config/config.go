package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	// Database selection: "dynamodb" or "mongo"
	DBType string

	// MongoDB settings (when DBType = "mongo")
	MongoURI string
	MongoDB  string

	// DynamoDB settings (when DBType = "dynamodb")
	AWSRegion          string
	DynamoDBEndpoint   string // Optional: for local development
	AWSAccessKeyID     string // Optional: for local development
	AWSSecretAccessKey string // Optional: for local development

	// Document-AI extraction service
	ExtractorURL        string // Empty means use the stub extractor
	ExtractorAPIKey     string
	ExtractorTimeoutSec int

	// Timeouts
	HTTPReadTimeoutSec     int
	HTTPWriteTimeoutSec    int
	HTTPIdleTimeoutSec     int
	HTTPRequestTimeoutSec  int
	MongoConnectTimeoutSec int
	MongoOpTimeoutMs       int

	// Worker settings
	WorkerIntervalSec int

	// Risk scoring / decision policy (tunable thresholds)
	AutoApproveMaxScore     int
	AutoApproveMaxAmount    int64
	ReviewMinScore          int
	RecentWindowDays        int
	HighValueThreshold      int64
	FrequentClaimsThreshold int

	// Security settings (for demo)
	APIKey         string   // Simple API key for demo auth
	AllowedOrigins []string // CORS allowed origins
	RateLimitRPM   int      // Rate limit requests per minute
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	cfg := &Config{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "dev")
	cfg.DBType = getEnv("DB_TYPE", "dynamodb") // Default to DynamoDB

	// MongoDB settings (check both MONGODB_URI and MONGO_URI for compatibility)
	cfg.MongoURI = getEnv("MONGODB_URI", getEnv("MONGO_URI", ""))
	cfg.MongoDB = getEnv("MONGO_DB", "go_claims")

	// DynamoDB settings
	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", "") // Empty means use AWS
	cfg.AWSAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AWSSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")

	// Extraction service
	cfg.ExtractorURL = getEnv("EXTRACTOR_URL", "")
	cfg.ExtractorAPIKey = getEnv("EXTRACTOR_API_KEY", "")
	cfg.ExtractorTimeoutSec = getEnvAsInt("EXTRACTOR_TIMEOUT_SEC", 30)

	cfg.HTTPReadTimeoutSec = getEnvAsInt("HTTP_READ_TIMEOUT_SEC", 10)
	cfg.HTTPWriteTimeoutSec = getEnvAsInt("HTTP_WRITE_TIMEOUT_SEC", 10)
	cfg.HTTPIdleTimeoutSec = getEnvAsInt("HTTP_IDLE_TIMEOUT_SEC", 120)
	cfg.HTTPRequestTimeoutSec = getEnvAsInt("HTTP_REQUEST_TIMEOUT_SEC", 30)
	cfg.MongoConnectTimeoutSec = getEnvAsInt("MONGO_CONNECT_TIMEOUT_SEC", 5)
	cfg.MongoOpTimeoutMs = getEnvAsInt("MONGO_OP_TIMEOUT_MS", 500)
	cfg.WorkerIntervalSec = getEnvAsInt("WORKER_INTERVAL_SEC", 5)

	// Scoring policy knobs
	cfg.AutoApproveMaxScore = getEnvAsInt("AUTO_APPROVE_MAX_SCORE", 30)
	cfg.AutoApproveMaxAmount = int64(getEnvAsInt("AUTO_APPROVE_MAX_AMOUNT", 50000))
	cfg.ReviewMinScore = getEnvAsInt("REVIEW_MIN_SCORE", 80)
	cfg.RecentWindowDays = getEnvAsInt("RECENT_WINDOW_DAYS", 30)
	cfg.HighValueThreshold = int64(getEnvAsInt("HIGH_VALUE_THRESHOLD", 100000))
	cfg.FrequentClaimsThreshold = getEnvAsInt("FREQUENT_CLAIMS_THRESHOLD", 3)

	// Security settings
	cfg.APIKey = getEnv("API_KEY", "")
	cfg.AllowedOrigins = getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080"})
	cfg.RateLimitRPM = getEnvAsInt("RATE_LIMIT_RPM", 100) // 100 requests per minute

	// Validate required fields based on DB type
	if cfg.DBType == "mongo" && cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required when DB_TYPE=mongo")
	}

	if cfg.AutoApproveMaxScore < 0 || cfg.AutoApproveMaxScore > 100 ||
		cfg.ReviewMinScore < 0 || cfg.ReviewMinScore > 100 {
		return nil, fmt.Errorf("score thresholds must be within [0,100]")
	}

	if cfg.HighValueThreshold <= 0 || cfg.FrequentClaimsThreshold < 1 {
		return nil, fmt.Errorf("risk thresholds must be positive")
	}

	// In production, API_KEY must be explicitly set
	if cfg.Env == "prod" && cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY is required in production environment")
	}

	// Default API key for development only
	if cfg.APIKey == "" {
		cfg.APIKey = "demo-api-key-12345"
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	// Split by comma and trim whitespace
	var result []string
	for _, s := range strings.Split(valStr, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	if len(result) == 0 {
		return defaultVal
	}
	return result
}
