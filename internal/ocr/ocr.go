// Package ocr defines the contract between the job runner and the opaque
// text recognition engine.
package ocr

import (
	"context"
	"errors"
)

// ErrCanceled is returned by an engine whose progress callback asked it to
// stop the current call.
var ErrCanceled = errors.New("recognition canceled by progress callback")

// Region restricts recognition to a rectangular area of the page, in pixel
// coordinates with the origin in the upper-left corner.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// PageInput is one page of a recognition batch: the encoded page image after
// any pre-processing, the language hints, and optional region restrictions.
// An empty Regions slice means the whole page is recognized.
type PageInput struct {
	// Image is the encoded image payload, PNG unless stated otherwise.
	Image []byte
	// Languages is the engine-specific language list shared by the batch.
	Languages []string
	// Regions restricts recognition to sub-rectangles of the page.
	Regions []Region
	// Quality selects the engine's quality-over-speed mode when true.
	Quality bool
}

// PageResult is the recognized content of one page.
type PageResult struct {
	// PlainText is the linearized page text.
	PlainText string
	// FormattedText preserves the engine's line structure.
	FormattedText string
}

// Text returns the page text in the requested form.
func (r PageResult) Text(formatted bool) string {
	if formatted && r.FormattedText != "" {
		return r.FormattedText
	}
	return r.PlainText
}

// ProgressFunc receives the engine's raw progress signal: a percentage in
// [0,100] that restarts for every page, with no explicit page-change marker.
// Implementations are expected to report monotonically increasing values
// within one page. Returning false asks the engine to stop the current call
// and return ErrCanceled.
type ProgressFunc func(percent int) bool

// Engine is the opaque recognition component. Recognize is invoked once per
// job with the full per-page input batch and blocks for the duration of the
// recognition; it is the single call a background runner spends most of its
// time in.
type Engine interface {
	// SupportedLanguages returns the engine's static language capability list.
	SupportedLanguages(ctx context.Context) ([]string, error)

	// Recognize processes the batch and returns one result per input, in
	// input order. The progress callback, when non-nil, is invoked at the
	// engine's internal checkpoints; cancellation requested through it takes
	// effect at the next checkpoint and surfaces as ErrCanceled.
	Recognize(ctx context.Context, inputs []PageInput, progress ProgressFunc) ([]PageResult, error)

	// DataDirectory reports the engine's model-data location so error text
	// can be scrubbed of server paths; empty when not applicable.
	DataDirectory() string
}
