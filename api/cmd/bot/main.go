package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"snaptext-bot/api/internal/auth"
	"snaptext-bot/api/internal/config"
	"snaptext-bot/api/internal/handle"
	"snaptext-bot/api/internal/httpserver"
	"snaptext-bot/api/internal/ocr"
	"snaptext-bot/api/internal/ocr/azure"
	"snaptext-bot/api/internal/ocr/gemini"
	"snaptext-bot/api/internal/ocr/tesseract"
	"snaptext-bot/api/internal/ocr/yandex"
	"snaptext-bot/api/internal/store"
	"snaptext-bot/api/internal/telegram"
)

func main() {
	cfg := config.Load()

	// --- Optional Postgres result cache ---
	var resultRepo *store.ResultRepo
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("sql.Open: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			cancel()
			log.Fatalf("db.Ping: %v", err)
		}
		resultRepo = store.NewResultRepo(db)
		if err := resultRepo.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("db schema: %v", err)
		}
		cancel()
		log.Printf("result cache enabled")
	} else {
		log.Printf("DATABASE_URL not set; result cache disabled")
	}

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false
	log.Printf("authorized as @%s", bot.Self.UserName)

	// --- Engines ---
	engines := telegram.Engines{
		Azure: azure.New(cfg.AzureEndpoint, cfg.AzureKey),
	}
	if cfg.YCOAuthToken != "" && cfg.YCFolderID != "" {
		engines.Yandex = yandex.New(cfg.YCOAuthToken, cfg.YCFolderID)
	}
	if cfg.GeminiAPIKey != "" {
		engines.Gemini = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	if cfg.Tesseract {
		engines.Tesseract = tesseract.New()
	}
	manager := ocr.NewManager(engines.Azure)

	retry := ocr.Policy{MaxAttempts: cfg.MaxRetries, Delay: cfg.RetryDelay}

	r := &telegram.Router{
		Bot:        bot,
		Gate:       auth.NewGate(cfg.Password),
		EngManager: manager,
		Engines:    engines,
		ResultRepo: resultRepo,

		AppVersion: config.AppVersion,
		Langs:      cfg.Langs,
		ChunkSize:  cfg.ChunkSize,
		Retry:      retry,
	}

	// --- HTTP surface (DefaultServeMux: ListenForWebhook registers there) ---
	httpserver.RegisterHealth(http.DefaultServeMux)
	api := &handle.Handle{
		Default: engines.Azure,
		Engines: map[string]ocr.Engine{
			"azure":     engines.Azure,
			"yandex":    engines.Yandex,
			"gemini":    engines.Gemini,
			"tesseract": engines.Tesseract,
		},
		Langs: cfg.Langs,
		Retry: retry,
	}
	http.HandleFunc("/v1/recognize", api.Recognize)

	addr := "0.0.0.0:" + cfg.Port

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(addr, bot, r, webhookURL)
	} else {
		startPollingMode(addr, bot, r)
	}
}

// ---------------- Modes -----------------

func startWebhookMode(addr string, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string) {
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatal(err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal(err)
	}

	updates := bot.ListenForWebhook(path)
	go func() {
		for upd := range updates {
			r.HandleUpdate(upd)
		}
		log.Printf("webhook updates channel closed")
	}()

	log.Printf("webhook listening on %s%s", addr, path)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal(err)
	}
}

func startPollingMode(addr string, bot *tgbotapi.BotAPI, r *telegram.Router) {
	go func() {
		log.Printf("health server listening on %s/health", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Fatal(err)
		}
	}()

	runPolling(context.Background(), bot, r.HandleUpdate)
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 from Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handleUpd func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Printf("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			log.Printf("polling error: %v; retry in %v", err, d)
			time.Sleep(d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handleUpd(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}

// ---------------- Helpers -----------------

// shortHash derives a stable non-secret-revealing webhook path from the
// bot token (FNV-1a, 16 hex chars).
func shortHash(s string) string {
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
