package ocr

import "errors"

// Result is the hierarchical structure returned by a recognition service:
// regions of the image, lines within a region, words within a line.
// Zero regions is a valid outcome — the service saw the image and found
// no text on it.
type Result struct {
	Language string   `json:"language,omitempty"`
	Regions  []Region `json:"regions"`
}

type Region struct {
	Lines []Line `json:"lines"`
}

type Line struct {
	Words []Word `json:"words"`
}

type Word struct {
	Text string `json:"text"`
}

// Empty reports whether the result contains no text regions at all.
func (r Result) Empty() bool { return len(r.Regions) == 0 }

// Options — per-call recognition parameters.
type Options struct {
	// Langs is an ordered list of language hints, e.g. ["en","ru"].
	// Engines that take a single language use the first entry.
	Langs []string
	// Model overrides the engine default where the engine has one.
	Model string
}

// Outcomes are classified with sentinel errors so callers decide on retry
// with errors.Is instead of matching error strings.
var (
	// ErrEmptyImage — no bytes to analyze. Caller error, never retried.
	ErrEmptyImage = errors.New("ocr: empty image")

	// ErrUnavailable — transient network/service fault. Retryable.
	ErrUnavailable = errors.New("ocr: service unavailable")

	// ErrEmptyResponse — the service answered but the payload is unusable.
	// Distinct from a result with zero regions. Not retried.
	ErrEmptyResponse = errors.New("ocr: empty response")
)
