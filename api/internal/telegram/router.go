package telegram

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"snaptext-bot/api/internal/auth"
	"snaptext-bot/api/internal/ocr"
	"snaptext-bot/api/internal/store"
)

// Engines — the recognition backends available to /engine. Nil entries are
// not configured for this deployment.
type Engines struct {
	Azure     ocr.Engine
	Yandex    ocr.Engine
	Gemini    ocr.Engine
	Tesseract ocr.Engine
}

type Router struct {
	Bot        *tgbotapi.BotAPI
	Gate       *auth.Gate
	EngManager *ocr.Manager
	Engines    Engines
	ResultRepo *store.ResultRepo // nil -> cache disabled

	AppVersion string
	Langs      []string
	ChunkSize  int
	Retry      ocr.Policy
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil || upd.Message.From == nil {
		return
	}
	msg := upd.Message
	cid := msg.Chat.ID
	uid := msg.From.ID

	if msg.IsCommand() {
		r.handleCommand(cid, uid, msg)
		return
	}

	// Plain text while the password prompt is open is a password attempt.
	if r.Gate.Status(uid) == auth.StatusWaiting && msg.Text != "" {
		r.handlePasswordEntry(cid, uid, msg.Text)
		return
	}

	if len(msg.Photo) > 0 {
		if !r.requireAuth(cid, uid) {
			return
		}
		r.acceptPhoto(*msg)
		return
	}

	if msg.Text != "" {
		if !r.requireAuth(cid, uid) {
			return
		}
		if strings.EqualFold(strings.TrimSpace(msg.Text), "version") {
			r.sendVersion(cid)
			return
		}
		r.send(cid, "Send a photo and I will return the recognized text.")
	}
}

func (r *Router) handleCommand(cid, uid int64, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		switch r.Gate.Start(uid) {
		case auth.StatusAuthorized:
			r.sendWelcome(cid)
		default:
			r.send(cid, "🔑 This bot is password protected. Please enter the password.")
		}
	case "version":
		if !r.requireAuth(cid, uid) {
			return
		}
		r.sendVersion(cid)
	case "health":
		r.send(cid, "✅ OK")
	case "engine":
		if !r.requireAuth(cid, uid) {
			return
		}
		r.handleEngineCommand(cid, msg.Text)
	default:
		r.send(cid, "Unknown command")
	}
}

func (r *Router) handlePasswordEntry(cid, uid int64, text string) {
	switch r.Gate.SubmitPassword(uid, text) {
	case auth.StatusAuthorized:
		log.Printf("auth: user %d authorized", uid)
		r.sendWelcome(cid)
	case auth.StatusDenied:
		log.Printf("auth: user %d denied", uid)
		r.send(cid, "❌ Wrong password. Send /start to try again.")
	}
}

// requireAuth rejects gated operations for non-authorized users. State is
// never changed here — a denied user stays denied.
func (r *Router) requireAuth(cid, uid int64) bool {
	if r.Gate.Authorized(uid) {
		return true
	}
	r.send(cid, "🔒 Not authorized. Send /start first.")
	return false
}

// handleEngineCommand switches the recognition backend for this chat.
// Formats: /engine, /engine azure, /engine gemini [model], ...
func (r *Router) handleEngineCommand(cid int64, cmd string) {
	args := strings.Fields(strings.TrimSpace(strings.TrimPrefix(cmd, "/engine")))
	if len(args) == 0 {
		cur := r.EngManager.Get(cid)
		r.send(cid, "Current engine: "+cur.Name()+" ("+cur.GetModel()+")\n"+
			"Usage: /engine {azure|yandex|gemini|tesseract} [model]")
		return
	}
	name := strings.ToLower(args[0])
	var mdl string
	if len(args) > 1 {
		mdl = strings.TrimSpace(args[1])
	}

	type modelSetter interface{ SetModel(string) }

	var eng ocr.Engine
	switch name {
	case "azure":
		eng = r.Engines.Azure
	case "yandex":
		eng = r.Engines.Yandex
	case "gemini":
		eng = r.Engines.Gemini
	case "tesseract":
		eng = r.Engines.Tesseract
	default:
		r.send(cid, "Unknown engine. Available: azure | yandex | gemini | tesseract")
		return
	}
	if eng == nil {
		r.send(cid, "❌ Engine "+name+" is not configured for this deployment.")
		return
	}
	if mdl != "" {
		if ms, ok := eng.(modelSetter); ok {
			ms.SetModel(mdl)
		}
	}
	r.EngManager.Set(cid, eng)
	r.send(cid, fmt.Sprintf("✅ Engine: %s (%s)", eng.Name(), eng.GetModel()))
}

func (r *Router) sendWelcome(cid int64) {
	msg := tgbotapi.NewMessage(cid, "Welcome! Send an image to recognize text.")
	msg.ReplyMarkup = makeStartKeyboard()
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("telegram: send welcome: %v", err)
	}
}

func (r *Router) sendVersion(cid int64) {
	r.send(cid, "Current application version: "+r.AppVersion)
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("telegram: send to %d: %v", chatID, err)
	}
}
