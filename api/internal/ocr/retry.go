package ocr

import (
	"context"
	"errors"
	"log"
	"time"
)

// Policy drives the retry loop around a single engine.
type Policy struct {
	MaxAttempts int           // total attempts, not extra retries
	Delay       time.Duration // fixed pause between attempts
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 2 * time.Second}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// Recognize runs up to p.MaxAttempts calls of eng.Recognize over the same
// immutable image bytes. Each engine call builds its own request body from
// the slice, so attempts never share a consumed stream.
//
// Only ErrUnavailable is retried; the delay between attempts is fixed, not
// exponential — matching the upstream service's guidance. Everything else
// (empty input, unusable payload, unclassified errors) aborts immediately.
// A result with zero regions is a success and is returned as-is.
func Recognize(ctx context.Context, eng Engine, image []byte, opt Options, p Policy) (Result, error) {
	if len(image) == 0 {
		return Result{}, ErrEmptyImage
	}
	p = p.normalized()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		res, err := eng.Recognize(ctx, image, opt)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return Result{}, err
		}
		lastErr = err
		if attempt == p.MaxAttempts {
			break
		}
		log.Printf("ocr: %s attempt %d/%d failed: %v; retrying in %v",
			eng.Name(), attempt, p.MaxAttempts, err, p.Delay)
		if err := wait(ctx, p.Delay); err != nil {
			return Result{}, err
		}
	}
	log.Printf("ocr: %s gave up after %d attempts: %v", eng.Name(), p.MaxAttempts, lastErr)
	return Result{}, lastErr
}

// wait sleeps without holding up the caller past context cancellation.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
