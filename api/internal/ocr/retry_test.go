package ocr

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeEngine scripts one error (or success) per attempt.
type fakeEngine struct {
	calls int
	plan  []error // nil entry means success on that attempt
	res   Result
}

func (f *fakeEngine) Name() string     { return "fake" }
func (f *fakeEngine) GetModel() string { return "" }

func (f *fakeEngine) Recognize(ctx context.Context, image []byte, opt Options) (Result, error) {
	i := f.calls
	f.calls++
	if i < len(f.plan) && f.plan[i] != nil {
		return Result{}, f.plan[i]
	}
	return f.res, nil
}

func unavailable() error {
	return fmt.Errorf("dial tcp: connection refused: %w", ErrUnavailable)
}

func TestRecognize_ExhaustsAllAttempts(t *testing.T) {
	eng := &fakeEngine{plan: []error{unavailable(), unavailable(), unavailable()}}
	p := Policy{MaxAttempts: 3, Delay: 0}

	_, err := Recognize(context.Background(), eng, []byte("img"), Options{}, p)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
	if eng.calls != 3 {
		t.Fatalf("want exactly 3 attempts, got %d", eng.calls)
	}
}

func TestRecognize_SuccessShortCircuits(t *testing.T) {
	want := Result{Regions: []Region{{Lines: []Line{{Words: []Word{{Text: "ok"}}}}}}}
	tests := []struct {
		name      string
		plan      []error
		wantCalls int
	}{
		{"first attempt", nil, 1},
		{"second attempt", []error{unavailable()}, 2},
		{"last attempt", []error{unavailable(), unavailable()}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{plan: tt.plan, res: want}
			got, err := Recognize(context.Background(), eng, []byte("img"), Options{}, Policy{MaxAttempts: 3})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if eng.calls != tt.wantCalls {
				t.Fatalf("want %d attempts, got %d", tt.wantCalls, eng.calls)
			}
			if Flatten(got) != "ok" {
				t.Fatalf("result changed on the way through: %+v", got)
			}
		})
	}
}

func TestRecognize_EmptyImageNeverCallsEngine(t *testing.T) {
	eng := &fakeEngine{}
	_, err := Recognize(context.Background(), eng, nil, Options{}, DefaultPolicy())
	if !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("want ErrEmptyImage, got %v", err)
	}
	if eng.calls != 0 {
		t.Fatalf("engine must not be invoked for empty input, got %d calls", eng.calls)
	}
}

func TestRecognize_NonTransientAbortsImmediately(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"empty response", fmt.Errorf("decode: %w", ErrEmptyResponse)},
		{"fatal", errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{plan: []error{tt.err, nil, nil}}
			_, err := Recognize(context.Background(), eng, []byte("img"), Options{}, Policy{MaxAttempts: 3})
			if !errors.Is(err, tt.err) {
				t.Fatalf("want %v, got %v", tt.err, err)
			}
			if eng.calls != 1 {
				t.Fatalf("want 1 attempt, got %d", eng.calls)
			}
		})
	}
}

func TestRecognize_EmptyRegionsIsSuccess(t *testing.T) {
	eng := &fakeEngine{res: Result{}}
	got, err := Recognize(context.Background(), eng, []byte("img"), Options{}, Policy{MaxAttempts: 3})
	if err != nil {
		t.Fatalf("zero regions must not be an error: %v", err)
	}
	if !got.Empty() {
		t.Fatalf("want empty result, got %+v", got)
	}
	if eng.calls != 1 {
		t.Fatalf("want 1 attempt, got %d", eng.calls)
	}
}

func TestRecognize_CancelledContextStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	eng := &fakeEngine{plan: []error{unavailable(), unavailable()}}
	_, err := Recognize(ctx, eng, []byte("img"), Options{}, Policy{MaxAttempts: 2, Delay: time.Minute})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if eng.calls != 1 {
		t.Fatalf("want 1 attempt before cancelled wait, got %d", eng.calls)
	}
}
