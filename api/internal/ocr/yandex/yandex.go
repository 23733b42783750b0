// Package yandex implements recognition over the Yandex Cloud OCR API.
package yandex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"snaptext-bot/api/internal/ocr"
	"snaptext-bot/api/internal/util"
)

type Engine struct {
	iamc     *iamClient
	folderID string
	httpc    *http.Client
}

func New(oauthToken, folderID string) *Engine {
	return &Engine{
		iamc:     newIamClient(oauthToken),
		folderID: folderID,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string     { return "yandex" }
func (e *Engine) GetModel() string { return "page" }

type request struct {
	Content       string   `json:"content"`
	MimeType      string   `json:"mimeType,omitempty"`
	LanguageCodes []string `json:"languageCodes,omitempty"`
	Model         string   `json:"model,omitempty"`
}

type response struct {
	Result *struct {
		TextAnnotation *struct {
			Blocks []struct {
				Lines []struct {
					Words []struct {
						Text string `json:"text,omitempty"`
					} `json:"words,omitempty"`
					Text string `json:"text,omitempty"`
				} `json:"lines,omitempty"`
			} `json:"blocks,omitempty"`
		} `json:"textAnnotation,omitempty"`
	} `json:"result,omitempty"`
}

// Recognize does one recognizeText call. Yandex blocks map to regions; when
// a line carries no word breakdown its text is whitespace-split so the
// region/line/word hierarchy stays uniform across engines.
func (e *Engine) Recognize(ctx context.Context, image []byte, opt ocr.Options) (ocr.Result, error) {
	if len(image) == 0 {
		return ocr.Result{}, ocr.ErrEmptyImage
	}
	iamToken, err := e.iamc.token(ctx)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("yandex iam: %v: %w", err, ocr.ErrUnavailable)
	}

	model := opt.Model
	if model == "" {
		model = e.GetModel()
	}
	reqBody := request{
		Content:       base64.StdEncoding.EncodeToString(image),
		MimeType:      sniffMimeForOCR(image),
		LanguageCodes: opt.Langs,
		Model:         model,
	}
	payload, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST",
		"https://ocr.api.cloud.yandex.net/ocr/v1/recognizeText",
		bytes.NewReader(payload),
	)
	if err != nil {
		return ocr.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iamToken)
	req.Header.Set("x-folder-id", e.folderID)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("yandex ocr: %v: %w", err, ocr.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		x, _ := io.ReadAll(resp.Body)
		return ocr.Result{}, fmt.Errorf("yandex ocr %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(x)), ocr.ErrUnavailable)
	default:
		x, _ := io.ReadAll(resp.Body)
		return ocr.Result{}, fmt.Errorf("yandex ocr %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ocr.Result{}, fmt.Errorf("yandex ocr: bad payload: %v: %w", err, ocr.ErrEmptyResponse)
	}
	if out.Result == nil || out.Result.TextAnnotation == nil {
		return ocr.Result{}, ocr.ErrEmptyResponse
	}

	var res ocr.Result
	if len(opt.Langs) > 0 {
		res.Language = opt.Langs[0]
	}
	for _, blk := range out.Result.TextAnnotation.Blocks {
		var region ocr.Region
		for _, ln := range blk.Lines {
			var line ocr.Line
			if len(ln.Words) > 0 {
				for _, w := range ln.Words {
					if w.Text != "" {
						line.Words = append(line.Words, ocr.Word{Text: w.Text})
					}
				}
			} else {
				for _, w := range strings.Fields(ln.Text) {
					line.Words = append(line.Words, ocr.Word{Text: w})
				}
			}
			if len(line.Words) > 0 {
				region.Lines = append(region.Lines, line)
			}
		}
		if len(region.Lines) > 0 {
			res.Regions = append(res.Regions, region)
		}
	}
	return res, nil
}

// sniffMimeForOCR returns the uppercase format names the Yandex API expects.
func sniffMimeForOCR(b []byte) string {
	switch util.SniffMimeHTTP(b) {
	case "image/jpeg":
		return "JPEG"
	case "image/png":
		return "PNG"
	default:
		return ""
	}
}
