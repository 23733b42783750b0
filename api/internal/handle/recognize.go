// Package handle exposes the recognition pipeline over HTTP for callers
// that are not on Telegram (smoke tests, sibling services).
package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"snaptext-bot/api/internal/ocr"
	"snaptext-bot/api/internal/util"
)

type Handle struct {
	Default ocr.Engine
	Engines map[string]ocr.Engine

	Langs []string
	Retry ocr.Policy
}

type recognizeRequest struct {
	Image     string   `json:"image"` // base64 or data:URI
	Languages []string `json:"languages,omitempty"`
	Engine    string   `json:"engine,omitempty"`
}

type recognizeResponse struct {
	Engine   string `json:"engine"`
	Model    string `json:"model"`
	Language string `json:"language,omitempty"`
	Regions  int    `json:"regions"`
	Text     string `json:"text"`
}

// Recognize serves POST /v1/recognize: decode the image, run it through the
// same retry controller and formatter the bot uses, answer with flat text.
func (h *Handle) Recognize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req recognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}

	deadline := 180 * time.Second
	if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), deadline)
	defer cancel()

	eng := h.Default
	if req.Engine != "" {
		e, ok := h.Engines[req.Engine]
		if !ok || e == nil {
			http.Error(w, "unknown engine: "+req.Engine, http.StatusBadRequest)
			return
		}
		eng = e
	}

	image, err := util.DecodeBase64MaybeDataURL(req.Image)
	if err != nil {
		http.Error(w, "bad image: "+err.Error(), http.StatusBadRequest)
		return
	}

	langs := req.Languages
	if len(langs) == 0 {
		langs = h.Langs
	}

	res, err := ocr.Recognize(ctx, eng, image, ocr.Options{Langs: langs}, h.Retry)
	if err != nil {
		switch {
		case errors.Is(err, ocr.ErrEmptyImage):
			http.Error(w, "empty image", http.StatusBadRequest)
		case errors.Is(err, ocr.ErrUnavailable):
			http.Error(w, "recognition service unavailable", http.StatusServiceUnavailable)
		default:
			http.Error(w, "recognize error: "+err.Error(), http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, http.StatusOK, recognizeResponse{
		Engine:   eng.Name(),
		Model:    eng.GetModel(),
		Language: res.Language,
		Regions:  len(res.Regions),
		Text:     ocr.Flatten(res),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
