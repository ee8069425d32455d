// Package capture provides video frame sources: a local webcam, a one-shot
// still image, and a remote WebRTC camera.
package capture

import (
	"errors"
	"image"
)

// ErrNoFrame indicates the source could not produce a frame.
var ErrNoFrame = errors.New("capture: no frame available")

// Source is a video frame source. Implementations are safe for use from a
// single sampling goroutine.
type Source interface {
	// Read returns the current frame in native resolution.
	Read() (image.Image, error)

	// Bounds returns the native frame dimensions.
	Bounds() (width, height int)

	// Close releases the underlying device or connection.
	Close() error
}
