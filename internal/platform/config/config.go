package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort   string
	JWTSecret []byte
	JWTExp    time.Duration

	// StorageBackend selects the durable store: "postgres", "file" or "memory".
	// "memory" is the fallback when nothing is configured; it does not survive
	// a restart and exists for local development and tests.
	StorageBackend string
	FileStorePath  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WorkflowWebhookURL string
	EventsQueueName    string

	APIBaseURL          string
	AgentToken          string
	AgentPollInterval   time.Duration
	AgentTaskTimeout    time.Duration
	AgentMaxFixAttempts int
}

// fileConfig is the optional YAML overlay (JOBPILOT_CONFIG). Env vars win over
// the file, the file wins over built-in defaults.
type fileConfig struct {
	APIPort            string `yaml:"api_port"`
	StorageBackend     string `yaml:"storage_backend"`
	FileStorePath      string `yaml:"file_store_path"`
	RedisAddr          string `yaml:"redis_addr"`
	WorkflowWebhookURL string `yaml:"workflow_webhook_url"`
	APIBaseURL         string `yaml:"api_base_url"`
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	overlay := loadFileOverlay()

	AppConfig = &Config{
		APIPort:   getEnv("API_PORT", withDefault(overlay.APIPort, "8080")),
		JWTSecret: []byte(getEnv("JWT_SECRET", "")),
		JWTExp:    time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,

		StorageBackend: getEnv("STORAGE_BACKEND", withDefault(overlay.StorageBackend, "memory")),
		FileStorePath:  getEnv("FILE_STORE_PATH", withDefault(overlay.FileStorePath, "jobpilot.json")),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "jobpilot_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", overlay.RedisAddr),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		WorkflowWebhookURL: getEnv("WORKFLOW_WEBHOOK_URL", overlay.WorkflowWebhookURL),
		EventsQueueName:    getEnv("EVENTS_QUEUE_NAME", "workflow_events_queue"),

		APIBaseURL:          getEnv("API_BASE_URL", withDefault(overlay.APIBaseURL, "http://localhost:8080")),
		AgentToken:          getEnv("AGENT_TOKEN", ""),
		AgentPollInterval:   time.Duration(getEnvAsInt("AGENT_POLL_INTERVAL_SECONDS", 5)) * time.Second,
		AgentTaskTimeout:    time.Duration(getEnvAsInt("AGENT_TASK_TIMEOUT_MINUTES", 30)) * time.Minute,
		AgentMaxFixAttempts: getEnvAsInt("AGENT_MAX_FIX_ATTEMPTS", 3),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func loadFileOverlay() fileConfig {
	var fc fileConfig
	path := os.Getenv("JOBPILOT_CONFIG")
	if path == "" {
		return fc
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("WARN: Could not read config file %s: %v", path, err)
		return fc
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		log.Printf("WARN: Could not parse config file %s: %v", path, err)
		return fileConfig{}
	}
	return fc
}

func withDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
