package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// MissingError reports a required environment value that was not set.
// Startup stops here; nothing is retried.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("the environment variable %s is not set", e.Key)
}

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env           string
	APIBaseURL    string
	APIUsername   string
	SEQTAPassword string
	OutputDir     string
	DumpRaw       bool

	CacheBackend string
	RedisAddr    string

	ReferenceRoot        string
	DriveCredentialsFile string
	PostgresURL          string

	PushGatewayURL string
}

// Load returns application config populated from the environment, reading a
// .env file first when present. SEQTA_PASSWORD is the one required value.
func Load() (App, error) {
	_ = godotenv.Load()

	password := os.Getenv("SEQTA_PASSWORD")
	if password == "" {
		return App{}, &MissingError{Key: "SEQTA_PASSWORD"}
	}

	home, _ := os.UserHomeDir()
	return App{
		Env:           getEnv("APP_ENV", "dev"),
		APIBaseURL:    getEnv("SEQTA_API_URL", "https://ta.sirius.vic.edu.au/mgm/attendance"),
		APIUsername:   getEnv("SEQTA_USERNAME", "mgm"),
		SEQTAPassword: password,
		OutputDir:     getEnv("OUTPUT_DIR", "data/raw"),
		DumpRaw:       boolEnv("DUMP_RAW_PAYLOAD", false),

		CacheBackend: getEnv("CACHE_BACKEND", "file"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),

		ReferenceRoot: getEnv("REFERENCE_ROOT",
			filepath.Join(home, "gdrive_export", "gdrive", "Services", "data", "extracted", "parquets")),
		DriveCredentialsFile: getEnv("DRIVE_CREDENTIALS_FILE",
			filepath.Join(home, ".local", "keys", "google_drive_oauth2_key.json")),
		PostgresURL: getEnv("DATABASE_URL", ""),

		PushGatewayURL: getEnv("PUSH_GATEWAY_URL", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}
