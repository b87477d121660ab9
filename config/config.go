package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	AppPort        string
	AllowedOrigins string
	StaticDir      string

	DatabaseURL    string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBMaxIdleConns int
	DBMaxOpenConns int
	DBTimeoutSecs  int

	AuthEnabled     bool
	AuthProjectID   string
	AuthCertsFile   string
	AuthCertsURL    string
	AuthTimeoutSecs int

	BrokerEnabled bool
	NatsURL       string
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("%s not set, defaulting to %s", key, defaultValue)
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Invalid integer value for %s, defaulting to %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Invalid boolean value for %s, defaulting to %t", key, defaultValue)
	}
	return defaultValue
}

func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env file")
	}

	return Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		AppPort:        getEnv("APP_PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		StaticDir:      getEnv("STATIC_DIR", "./static"),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "tasknest"),
		DBPassword:     getEnv("DB_PASSWORD", "tasknest"),
		DBName:         getEnv("DB_NAME", "tasknest"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		DBTimeoutSecs:  getEnvAsInt("DB_TIMEOUT_SECONDS", 5),

		AuthEnabled:     getEnvAsBool("AUTH_ENABLED", false),
		AuthProjectID:   getEnv("AUTH_PROJECT_ID", ""),
		AuthCertsFile:   getEnv("AUTH_CERTS_FILE", ""),
		AuthCertsURL:    getEnv("AUTH_CERTS_URL", ""),
		AuthTimeoutSecs: getEnvAsInt("AUTH_TIMEOUT_SECONDS", 5),

		BrokerEnabled: getEnvAsBool("BROKER_ENABLED", false),
		NatsURL:       getEnv("NATS_URL", "nats://localhost:4222"),
	}
}

// DSN returns the store connection string, preferring an explicit
// DATABASE_URL over the discrete connection settings.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
	)
}
