package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"snaptext-bot/api/internal/ocr"
	"snaptext-bot/api/internal/store"
	"snaptext-bot/api/internal/util"
)

const cacheMaxAge = 24 * time.Hour

// acceptPhoto downloads the largest rendition of the photo and hands it to a
// background goroutine; the polling loop is never blocked on recognition.
// Session state was already checked and is not touched past this point, so
// two photos in flight from one user just produce two independent replies.
func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1]

	file, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: ph.FileID})
	if err != nil {
		log.Printf("telegram: get file %s: %v", ph.FileID, err)
		r.send(cid, "❌ Could not fetch the image from Telegram. Please try again.")
		return
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Bot.Token, file.FilePath)
	imgBytes, err := download(url)
	if err != nil {
		log.Printf("telegram: download %s: %v", ph.FileID, err)
		r.send(cid, "❌ Could not fetch the image from Telegram. Please try again.")
		return
	}

	processing, err := r.Bot.Send(tgbotapi.NewMessage(cid, "⏳ Processing image..."))
	if err != nil {
		log.Printf("telegram: send processing note: %v", err)
	}

	log.Printf("photo: user %d file %s (%d bytes)", msg.From.ID, ph.FileID, len(imgBytes))
	go r.processImage(cid, processing.MessageID, imgBytes)
}

func (r *Router) processImage(cid int64, processingMsgID int, imgBytes []byte) {
	ctx := context.Background()
	eng := r.EngManager.Get(cid)

	res, err := r.recognizeCached(ctx, cid, eng, imgBytes)

	if processingMsgID != 0 {
		if _, derr := r.Bot.Request(tgbotapi.NewDeleteMessage(cid, processingMsgID)); derr != nil {
			log.Printf("telegram: delete processing note: %v", derr)
		}
	}

	if err != nil {
		log.Printf("ocr: %s failed for chat %d: %v", eng.Name(), cid, err)
		r.send(cid, userFacing(err))
		return
	}

	text := ocr.Flatten(res)
	if text == "" {
		r.send(cid, "❌ No text found in the image.")
		return
	}
	for _, chunk := range ocr.Split(text, r.ChunkSize) {
		r.send(cid, chunk)
	}
}

// recognizeCached consults the result cache before spending an OCR call and
// stores fresh successes back. Cache trouble is logged, never user-visible.
func (r *Router) recognizeCached(ctx context.Context, cid int64, eng ocr.Engine, imgBytes []byte) (ocr.Result, error) {
	opt := ocr.Options{Langs: r.Langs}

	var imgHash string
	if r.ResultRepo != nil {
		imgHash = util.SHA256Hex(imgBytes)
		if row, err := r.ResultRepo.FindByHash(ctx, imgHash, eng.Name(), eng.GetModel(), cacheMaxAge); err == nil {
			log.Printf("cache: hit %s for chat %d", imgHash[:12], cid)
			return row.Result, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			log.Printf("cache: lookup: %v", err)
		}
	}

	res, err := ocr.Recognize(ctx, eng, imgBytes, opt, r.Retry)
	if err != nil {
		return ocr.Result{}, err
	}

	if r.ResultRepo != nil {
		if err := r.ResultRepo.Upsert(ctx, cid, imgHash, eng.Name(), eng.GetModel(), res); err != nil {
			log.Printf("cache: upsert: %v", err)
		}
	}
	return res, nil
}

// userFacing maps an analysis failure to a short non-technical reply;
// the detail stays in the log.
func userFacing(err error) string {
	switch {
	case errors.Is(err, ocr.ErrEmptyImage):
		return "❌ The image is empty. Please send a photo."
	case errors.Is(err, ocr.ErrUnavailable):
		return "❌ Failed to recognize text after multiple attempts. Please try again later."
	case errors.Is(err, ocr.ErrEmptyResponse):
		return "❌ The recognition service returned an unusable answer. Please try again."
	default:
		return "❌ An unexpected error occurred while processing the image."
	}
}

func download(url string) ([]byte, error) {
	resp, err := httpClient().Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
