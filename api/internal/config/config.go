package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const AppVersion = "1.01"

type Config struct {
	Port string

	TelegramBotToken string
	WebhookURL       string // empty -> long polling

	// Shared password for the bot. Empty disables the authorization gate.
	Password string

	AzureEndpoint string
	AzureKey      string

	// Optional engines
	GeminiAPIKey string
	GeminiModel  string
	YCOAuthToken string
	YCFolderID   string
	Tesseract    bool

	// Recognition tuning
	Langs      []string
	MaxRetries int
	RetryDelay time.Duration
	ChunkSize  int

	// Optional result cache
	DatabaseURL string
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("config: ignoring bad %s=%q", k, v)
	}
	return def
}

func getEnvBool(k string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	return v == "1" || v == "true" || v == "yes"
}

// Load reads the environment (with .env autoload for local runs) and fails
// hard on missing mandatory credentials — the process must not come up
// half-configured.
func Load() *Config {
	_ = godotenv.Load()

	langs := strings.Split(getEnv("OCR_LANGS", "en,ru"), ",")
	for i := range langs {
		langs[i] = strings.TrimSpace(langs[i])
	}

	return &Config{
		Port: getEnv("PORT", "8000"),

		TelegramBotToken: mustEnv("TELEGRAM_BOT_TOKEN"),
		WebhookURL:       os.Getenv("WEBHOOK_URL"),

		Password: os.Getenv("BOT_PASSWORD"),

		AzureEndpoint: mustEnv("AZURE_VISION_ENDPOINT"),
		AzureKey:      mustEnv("AZURE_VISION_KEY"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		YCOAuthToken: os.Getenv("YC_OAUTH_TOKEN"),
		YCFolderID:   os.Getenv("YC_FOLDER_ID"),
		Tesseract:    getEnvBool("OCR_TESSERACT"),

		Langs:      langs,
		MaxRetries: getEnvInt("OCR_MAX_RETRIES", 3),
		RetryDelay: time.Duration(getEnvInt("OCR_RETRY_DELAY_SEC", 2)) * time.Second,
		ChunkSize:  getEnvInt("CHUNK_SIZE", 4000),

		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
}
