package azure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"snaptext-bot/api/internal/ocr"
)

const regionsJSON = `{
  "language": "en",
  "regions": [
    {"lines": [{"words": [{"text": "a"}, {"text": "b"}]}]},
    {"lines": [{"words": [{"text": "c"}]}]}
  ]
}`

func newTestEngine(srv *httptest.Server) *Engine {
	e := New(srv.URL, "test-key")
	e.httpc = srv.Client()
	return e
}

func TestRecognize_DecodesHierarchy(t *testing.T) {
	var gotLang, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.URL.Query().Get("language")
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		w.Write([]byte(regionsJSON))
	}))
	defer srv.Close()

	res, err := newTestEngine(srv).Recognize(context.Background(), []byte("img"), ocr.Options{Langs: []string{"en", "ru"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLang != "en" {
		t.Errorf("want first language hint sent, got %q", gotLang)
	}
	if gotKey != "test-key" {
		t.Errorf("subscription key not sent, got %q", gotKey)
	}
	if got := ocr.Flatten(res); got != "a b\nc" {
		t.Errorf("Flatten = %q, want %q", got, "a b\nc")
	}
}

func TestRecognize_NoLangsFallsBackToUnk(t *testing.T) {
	var gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.URL.Query().Get("language")
		w.Write([]byte(`{"regions": []}`))
	}))
	defer srv.Close()

	res, err := newTestEngine(srv).Recognize(context.Background(), []byte("img"), ocr.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLang != "unk" {
		t.Errorf("want language=unk, got %q", gotLang)
	}
	if !res.Empty() {
		t.Errorf("want empty result, got %+v", res)
	}
}

func TestRecognize_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"service error is transient", http.StatusServiceUnavailable, "down", ocr.ErrUnavailable},
		{"throttling is transient", http.StatusTooManyRequests, "slow down", ocr.ErrUnavailable},
		{"garbage payload", http.StatusOK, "<html>nope</html>", ocr.ErrEmptyResponse},
		{"blank payload", http.StatusOK, "", ocr.ErrEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestEngine(srv).Recognize(context.Background(), []byte("img"), ocr.Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRecognize_AuthFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestEngine(srv).Recognize(context.Background(), []byte("img"), ocr.Options{})
	if err == nil {
		t.Fatal("want error")
	}
	if errors.Is(err, ocr.ErrUnavailable) {
		t.Fatalf("401 must not be retryable, got %v", err)
	}
}

func TestRecognize_EmptyImage(t *testing.T) {
	_, err := New("https://example.invalid", "k").Recognize(context.Background(), nil, ocr.Options{})
	if !errors.Is(err, ocr.ErrEmptyImage) {
		t.Fatalf("want ErrEmptyImage, got %v", err)
	}
}
