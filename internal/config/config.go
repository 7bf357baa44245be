// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	Environment string

	// Storage. DBPath is the sqlite file, KVEngine selects where the
	// client-visible state snapshots live: "gorm", "file" or "memory".
	DBPath     string
	KVEngine   string
	KVFilePath string

	// Identity.
	JWTSecretKey string
	AllowSignups bool

	// Login code delivery. With no webhook URL the code is only logged,
	// which is the development setup.
	OtpWebhookURL    string
	OtpWebhookAPIKey string

	// Reply generation. With no API key the offline canned generator is
	// used instead of the OpenAI-compatible endpoint.
	ReplyAPIKey  string
	ReplyBaseURL string
	ReplyModel   string

	MaxChats      int
	SecureCookies bool
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	production := strings.ToLower(env) == "production"
	if !production {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		Environment:      env,
		DBPath:           getEnv("DB_PATH", "data/refine.db"),
		KVEngine:         strings.ToLower(getEnv("KV_ENGINE", "gorm")),
		KVFilePath:       getEnv("KV_FILE_PATH", "data/state.json"),
		JWTSecretKey:     getEnv("JWT_SECRET_KEY", ""),
		AllowSignups:     getEnvAsBool("ALLOW_SIGNUPS", true),
		OtpWebhookURL:    getEnv("OTP_WEBHOOK_URL", ""),
		OtpWebhookAPIKey: getEnv("OTP_WEBHOOK_API_KEY", ""),
		ReplyAPIKey:      getEnv("REPLY_API_KEY", ""),
		ReplyBaseURL:     getEnv("REPLY_BASE_URL", ""),
		ReplyModel:       getEnv("REPLY_MODEL", "gpt-4o-mini"),
		MaxChats:         getEnvAsInt("CHAT_MAX_CHATS", 50),
		SecureCookies:    getEnvAsBool("SECURE_COOKIES", production),
	}

	// Validation for production environments
	if production {
		missing := []string{}
		if cfg.JWTSecretKey == "" {
			missing = append(missing, "JWT_SECRET_KEY")
		}
		if len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

// getEnvAsBool gets an env var as a boolean, with a fallback.
func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as boolean. Using default value.", key)
		return defaultValue
	}
	return boolValue
}
