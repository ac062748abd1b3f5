package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string
	JWTSecret  string
	ServerPort string

	AMQPURL      string
	AMQPExchange string

	LogFormat   string
	CORSOrigins string

	// Submissions reporting more than TimeLimit+TimeLimitGrace are rejected
	// only when EnforceTimeLimit is set.
	EnforceTimeLimit bool
	TimeLimitGrace   time.Duration

	HistoryMaxLimit int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBDriver:         getEnv("DB_DRIVER", "postgres"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "eduhub"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		SQLitePath:       getEnv("SQLITE_PATH", "eduhub.db"),
		JWTSecret:        getEnv("JWT_SECRET", "secret"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		AMQPURL:          getEnv("AMQP_URL", ""),
		AMQPExchange:     getEnv("AMQP_EXCHANGE", "iq.events"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		CORSOrigins:      getEnv("CORS_ORIGINS", "*"),
		EnforceTimeLimit: getEnvBool("ENFORCE_TIME_LIMIT", false),
		TimeLimitGrace:   time.Duration(getEnvInt("TIME_LIMIT_GRACE_SECONDS", 30)) * time.Second,
		HistoryMaxLimit:  getEnvInt("HISTORY_MAX_LIMIT", 100),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
