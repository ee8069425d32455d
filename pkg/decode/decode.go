// Package decode wraps the external pattern-recognition decoder behind a
// small interface. The decoder is an opaque collaborator: it gets pixels and
// either returns the decoded text or reports that no valid pattern was found.
package decode

import (
	"errors"
	"image"
	"time"
)

// ErrNotFound indicates the frame contained no decodable pattern. During
// live scanning this is the expected outcome of most ticks, not a failure.
var ErrNotFound = errors.New("decode: no pattern found")

// Point is a pattern locator position in canvas pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is a successfully decoded pattern.
type Result struct {
	Text   string    `json:"text"`
	Format string    `json:"format"`
	Points []Point   `json:"points,omitempty"`
	At     time.Time `json:"at"`
}

// Decoder is the interface for pattern decoding backends.
type Decoder interface {
	// Decode scans the image for a pattern. Returns ErrNotFound when the
	// image holds no valid code.
	Decode(img image.Image) (*Result, error)

	// Close releases resources.
	Close() error
}

// Config holds decoder configuration.
type Config struct {
	TryHarder bool // Spend more time per frame for difficult codes
}

// DefaultConfig returns the recommended live-scanning configuration.
// TryHarder is off: at interactive sample rates a cheap miss now is better
// than a slow hit later.
func DefaultConfig() Config {
	return Config{TryHarder: false}
}

// StillConfig returns the configuration for one-shot still-image decoding,
// where per-frame latency does not matter.
func StillConfig() Config {
	return Config{TryHarder: true}
}
