// Package azure talks to the Azure Computer Vision printed-text OCR endpoint.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"snaptext-bot/api/internal/ocr"
)

type Engine struct {
	endpoint string
	key      string
	httpc    *http.Client
}

func New(endpoint, key string) *Engine {
	return &Engine{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		key:      strings.TrimSpace(key),
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string     { return "azure" }
func (e *Engine) GetModel() string { return "vision-v3.2-ocr" }

// Wire format of /vision/v3.2/ocr. Bounding boxes are ignored — only the
// region/line/word text hierarchy is carried upward.
type response struct {
	Language string `json:"language"`
	Regions  []struct {
		Lines []struct {
			Words []struct {
				Text string `json:"text"`
			} `json:"words"`
		} `json:"lines"`
	} `json:"regions"`
}

// Recognize performs a single OCR call. The request body is a fresh reader
// over the caller's bytes, so repeated calls never contend over a consumed
// stream. Network faults and 5xx/429 map to ocr.ErrUnavailable; an
// undecodable body maps to ocr.ErrEmptyResponse; other HTTP statuses are
// fatal (bad key, bad image).
func (e *Engine) Recognize(ctx context.Context, image []byte, opt ocr.Options) (ocr.Result, error) {
	if len(image) == 0 {
		return ocr.Result{}, ocr.ErrEmptyImage
	}

	q := url.Values{"detectOrientation": {"true"}}
	// The endpoint takes a single language; "unk" lets the service detect.
	if len(opt.Langs) > 0 && opt.Langs[0] != "" {
		q.Set("language", opt.Langs[0])
	} else {
		q.Set("language", "unk")
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		e.endpoint+"/vision/v3.2/ocr?"+q.Encode(),
		bytes.NewReader(image),
	)
	if err != nil {
		return ocr.Result{}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", e.key)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("azure ocr: %v: %w", err, ocr.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		x, _ := io.ReadAll(resp.Body)
		return ocr.Result{}, fmt.Errorf("azure ocr %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(x)), ocr.ErrUnavailable)
	default:
		x, _ := io.ReadAll(resp.Body)
		return ocr.Result{}, fmt.Errorf("azure ocr %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("azure ocr: read body: %v: %w", err, ocr.ErrUnavailable)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ocr.Result{}, ocr.ErrEmptyResponse
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return ocr.Result{}, fmt.Errorf("azure ocr: bad payload: %v: %w", err, ocr.ErrEmptyResponse)
	}

	res := ocr.Result{Language: out.Language}
	for _, reg := range out.Regions {
		var region ocr.Region
		for _, ln := range reg.Lines {
			var line ocr.Line
			for _, w := range ln.Words {
				line.Words = append(line.Words, ocr.Word{Text: w.Text})
			}
			region.Lines = append(region.Lines, line)
		}
		res.Regions = append(res.Regions, region)
	}
	return res, nil
}
