// Package source implements the catalog of external knowledge sources and
// the priority-ordered fetch-with-fallback protocol.
package source

import (
	"context"
	"errors"
)

// ErrNoContent signals that a source had nothing usable for a query: a
// missing page, an empty search result, or an extract too short to keep.
// It is an ordinary fallback trigger, never a run error.
var ErrNoContent = errors.New("source returned no content")

// Content is the usable text a source produced for one query.
type Content struct {
	Text string
	URL  string
}

// Source is one named external knowledge source. Implementations form a
// closed set; each carries its fixed priority rank and nominal confidence.
type Source interface {
	Name() string

	// Rank is the fixed priority; lower ranks are tried first.
	Rank() int

	// Confidence is the nominal confidence attached to content this
	// source produces.
	Confidence() float64

	// Lookup fetches content for one query term. It returns ErrNoContent
	// when the source has nothing for the term; any other error is a
	// transient source failure. Both advance the fallback.
	Lookup(ctx context.Context, term string) (*Content, error)
}
