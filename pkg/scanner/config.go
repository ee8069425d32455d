// Package scanner drives the sample-and-decode loop: it crops the viewfinder
// region out of a frame source at a fixed rate, draws it onto an off-screen
// canvas, and hands the canvas to the decoder.
package scanner

import "time"

// Limits for config validation.
const (
	MinSampleIntervalMs = 10
	MaxSampleIntervalMs = 5000
	MinCanvasSide       = 64
	MaxCanvasSide       = 4096
	MaxZoom             = 8.0
)

// Config holds all tunable scanning parameters.
// These can be modified via the scanner API at runtime.
type Config struct {
	// === Sampling ===
	SampleIntervalMs int `json:"sample_interval_ms"` // Time between decode attempts
	CanvasWidth      int `json:"canvas_width"`       // Off-screen decode surface width
	CanvasHeight     int `json:"canvas_height"`      // Off-screen decode surface height

	// === Viewfinder ===
	// The rendered size is the display size of the live feed; the overlay
	// geometry is computed in this space and mapped back to native pixels.
	RenderWidth  int `json:"render_width"`
	RenderHeight int `json:"render_height"`

	// ViewfinderRatio is the scan region side relative to the short frame
	// side (0-1]. ViewfinderMaxSide caps the side in pixels (0 = no cap).
	ViewfinderRatio   float64 `json:"viewfinder_ratio"`
	ViewfinderMaxSide int     `json:"viewfinder_max_side"`

	// Shaded controls whether the overlay darkens everything outside the
	// scan region.
	Shaded bool `json:"shaded"`

	// === Digital Zoom ===
	// ZoomLevel shrinks the sampled area about its center (1.0 to 8.0).
	ZoomLevel float64 `json:"zoom_level"`

	// === Decode behavior ===
	StopOnDecode bool `json:"stop_on_decode"` // Stop the loop after the first hit
	DecodeAll    bool `json:"decode_all"`     // Report every code in the frame
	TryHarder    bool `json:"try_harder"`     // Slower, more thorough decoding

	// === Capture ===
	// Requested camera resolution. The camera may deliver something else;
	// the sampler always reads the actual native size off the frame.
	CaptureWidth  int `json:"capture_width"`
	CaptureHeight int `json:"capture_height"`
}

// DefaultConfig returns the recommended scanning configuration.
func DefaultConfig() Config {
	return Config{
		SampleIntervalMs: 250, // 4 decode attempts per second
		CanvasWidth:      640,
		CanvasHeight:     480,

		RenderWidth:  640,
		RenderHeight: 480,

		ViewfinderRatio:   0.7,
		ViewfinderMaxSide: 0,
		Shaded:            true,

		ZoomLevel: 1.0,

		StopOnDecode: true,
		DecodeAll:    false,
		TryHarder:    false,

		CaptureWidth:  1280,
		CaptureHeight: 720,
	}
}

// Interval returns the sample interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.SampleIntervalMs) * time.Millisecond
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.SampleIntervalMs < MinSampleIntervalMs || c.SampleIntervalMs > MaxSampleIntervalMs {
		errors = append(errors, "sample_interval_ms must be between 10 and 5000")
	}
	if c.CanvasWidth < MinCanvasSide || c.CanvasWidth > MaxCanvasSide {
		errors = append(errors, "canvas_width must be between 64 and 4096")
	}
	if c.CanvasHeight < MinCanvasSide || c.CanvasHeight > MaxCanvasSide {
		errors = append(errors, "canvas_height must be between 64 and 4096")
	}
	if c.RenderWidth < 1 || c.RenderHeight < 1 {
		errors = append(errors, "render dimensions must be positive")
	}
	if c.ViewfinderRatio <= 0 || c.ViewfinderRatio > 1 {
		errors = append(errors, "viewfinder_ratio must be in (0, 1]")
	}
	if c.ViewfinderMaxSide < 0 {
		errors = append(errors, "viewfinder_max_side must be >= 0")
	}
	if c.ZoomLevel < 1.0 || c.ZoomLevel > MaxZoom {
		errors = append(errors, "zoom_level must be between 1.0 and 8.0")
	}
	if c.CaptureWidth < 0 || c.CaptureHeight < 0 {
		errors = append(errors, "capture dimensions must be >= 0")
	}

	return errors
}
