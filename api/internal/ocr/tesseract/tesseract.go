// Package tesseract runs recognition locally through the gosseract client.
// Needs libtesseract at build and run time; enable with OCR_TESSERACT=1.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"snaptext-bot/api/internal/ocr"
)

type Engine struct {
	clientFactory func() *gosseract.Client
}

func New() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string     { return "tesseract" }
func (e *Engine) GetModel() string { return "gosseract" }

// Recognize OCRs the image in-process. Language hints map onto tesseract
// traineddata names ("en" -> "eng", "ru" -> "rus"); all recognized text
// lands in a single region, one line per text line.
func (e *Engine) Recognize(ctx context.Context, image []byte, opt ocr.Options) (ocr.Result, error) {
	if len(image) == 0 {
		return ocr.Result{}, ocr.ErrEmptyImage
	}
	select {
	case <-ctx.Done():
		return ocr.Result{}, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return ocr.Result{}, fmt.Errorf("tesseract: set image: %w", err)
	}
	if langs := trainedLangs(opt.Langs); len(langs) > 0 {
		if err := c.SetLanguage(langs...); err != nil {
			return ocr.Result{}, fmt.Errorf("tesseract: set languages: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("tesseract: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ocr.Result{}, nil
	}

	var region ocr.Region
	for _, lnText := range strings.Split(text, "\n") {
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

func trainedLangs(hints []string) []string {
	out := make([]string, 0, len(hints))
	for _, h := range hints {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "en", "eng":
			out = append(out, "eng")
		case "ru", "rus":
			out = append(out, "rus")
		case "":
		default:
			out = append(out, strings.ToLower(strings.TrimSpace(h)))
		}
	}
	return out
}
