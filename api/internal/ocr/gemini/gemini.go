// Package gemini uses a Gemini vision model as a recognition engine.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"snaptext-bot/api/internal/ocr"
	"snaptext-bot/api/internal/util"
)

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) SetModel(m string) { e.Model = m }

const transcribePrompt = `Transcribe every piece of text visible on this image.
Output the text only, one recognized line per output line, top to bottom,
left to right. Preserve the original wording and spelling exactly. Do not
translate, do not comment, do not add markdown. If the image contains no
text, output nothing at all.`

// Recognize asks the model for a verbatim transcription and maps each output
// line into the region/line/word hierarchy (a single region — the model does
// not expose layout blocks).
func (e *Engine) Recognize(ctx context.Context, image []byte, opt ocr.Options) (ocr.Result, error) {
	if len(image) == 0 {
		return ocr.Result{}, ocr.ErrEmptyImage
	}
	if e.APIKey == "" {
		return ocr.Result{}, errors.New("gemini: GEMINI_API_KEY is empty")
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return ocr.Result{}, classify(err)
	}
	defer cl.Close()

	model := e.Model
	if opt.Model != "" {
		model = opt.Model
	}
	m := cl.GenerativeModel(model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(0)}

	prompt := transcribePrompt
	if len(opt.Langs) > 0 {
		prompt += "\nThe text is most likely in: " + strings.Join(opt.Langs, ", ") + "."
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text(prompt),
		genai.ImageData(mimeSubtype(image), image),
	)
	if err != nil {
		return ocr.Result{}, classify(err)
	}

	txt := firstText(resp)
	if txt == "" {
		// The model saw the image and produced nothing: no text detected.
		return ocr.Result{}, nil
	}

	var region ocr.Region
	for _, lnText := range strings.Split(strings.TrimSpace(txt), "\n") {
		var line ocr.Line
		for _, w := range strings.Fields(lnText) {
			line.Words = append(line.Words, ocr.Word{Text: w})
		}
		if len(line.Words) > 0 {
			region.Lines = append(region.Lines, line)
		}
	}
	var res ocr.Result
	if len(region.Lines) > 0 {
		res.Regions = []ocr.Region{region}
	}
	return res, nil
}

func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500 {
			return fmt.Errorf("gemini: %v: %w", err, ocr.ErrUnavailable)
		}
		return fmt.Errorf("gemini: %w", err)
	}
	// Non-API errors out of the client are transport-level.
	return fmt.Errorf("gemini: %v: %w", err, ocr.ErrUnavailable)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				if s := strings.TrimSpace(string(t)); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// mimeSubtype is what genai.ImageData expects ("jpeg", "png", ...).
func mimeSubtype(image []byte) string {
	return strings.TrimPrefix(util.SniffMimeHTTP(image), "image/")
}

func ptrFloat32(v float32) *float32 { return &v }
