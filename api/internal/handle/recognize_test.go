package handle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"snaptext-bot/api/internal/ocr"
)

type stubEngine struct {
	name string
	res  ocr.Result
	err  error
}

func (s *stubEngine) Name() string     { return s.name }
func (s *stubEngine) GetModel() string { return "stub" }

func (s *stubEngine) Recognize(ctx context.Context, image []byte, opt ocr.Options) (ocr.Result, error) {
	return s.res, s.err
}

func lineOf(words ...string) ocr.Line {
	ln := ocr.Line{}
	for _, w := range words {
		ln.Words = append(ln.Words, ocr.Word{Text: w})
	}
	return ln
}

func postRecognize(t *testing.T, h *Handle, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/recognize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Recognize(rec, req)
	return rec
}

func TestRecognize_ReturnsFlattenedText(t *testing.T) {
	h := &Handle{
		Default: &stubEngine{name: "stub", res: ocr.Result{
			Language: "en",
			Regions: []ocr.Region{
				{Lines: []ocr.Line{lineOf("a", "b")}},
				{Lines: []ocr.Line{lineOf("c")}},
			},
		}},
		Retry: ocr.Policy{MaxAttempts: 1},
	}
	img := base64.StdEncoding.EncodeToString([]byte("img"))
	rec := postRecognize(t, h, fmt.Sprintf(`{"image": %q}`, img))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var out recognizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad response json: %v", err)
	}
	if out.Text != "a b\nc" {
		t.Errorf("text = %q, want %q", out.Text, "a b\nc")
	}
	if out.Regions != 2 || out.Engine != "stub" {
		t.Errorf("unexpected metadata: %+v", out)
	}
}

func TestRecognize_ErrorsMapToStatusCodes(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte("img"))
	tests := []struct {
		name       string
		body       string
		engineErr  error
		wantStatus int
	}{
		{"empty image", `{"image": ""}`, nil, http.StatusBadRequest},
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"unknown engine", fmt.Sprintf(`{"image": %q, "engine": "nope"}`, img), nil, http.StatusBadRequest},
		{"service unavailable", fmt.Sprintf(`{"image": %q}`, img), fmt.Errorf("down: %w", ocr.ErrUnavailable), http.StatusServiceUnavailable},
		{"fatal", fmt.Sprintf(`{"image": %q}`, img), fmt.Errorf("boom"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handle{
				Default: &stubEngine{name: "stub", err: tt.engineErr},
				Retry:   ocr.Policy{MaxAttempts: 1},
			}
			rec := postRecognize(t, h, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestRecognize_MethodGuard(t *testing.T) {
	h := &Handle{Default: &stubEngine{name: "stub"}, Retry: ocr.Policy{MaxAttempts: 1}}
	req := httptest.NewRequest(http.MethodGet, "/v1/recognize", nil)
	rec := httptest.NewRecorder()
	h.Recognize(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
