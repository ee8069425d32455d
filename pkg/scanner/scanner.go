package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pixelgrove/qrscan/internal/log"
	"github.com/pixelgrove/qrscan/pkg/capture"
	"github.com/pixelgrove/qrscan/pkg/decode"
	"github.com/pixelgrove/qrscan/pkg/viewfinder"
)

// Sentinel errors for scanner lifecycle misuse.
var (
	ErrAlreadyRunning = errors.New("scanner: already running")
	ErrBusy           = errors.New("scanner: live scan in progress")
)

// After this many consecutive read failures the source is considered dead
// and the scan stops.
const maxConsecutiveReadFailures = 30

// jpegQuality for the dashboard frame feed.
const jpegQuality = 80

// multiDecoder is implemented by decoders that can find every code in a
// frame, not just the first.
type multiDecoder interface {
	DecodeAll(img image.Image) ([]decode.Result, error)
}

// tunableDecoder is implemented by decoders whose per-frame effort can be
// adjusted between decodes.
type tunableDecoder interface {
	SetTryHarder(on bool)
}

// Status is a snapshot of the scanner state.
type Status struct {
	Running       bool           `json:"running"`
	ScanID        string         `json:"scan_id,omitempty"`
	FramesSampled uint64         `json:"frames_sampled"`
	LastResult    *decode.Result `json:"last_result,omitempty"`
}

// Scanner runs the repeating sample-and-decode loop against a frame source.
// A single goroutine owns the loop; Start and Stop manage its lifecycle.
type Scanner struct {
	source capture.Source
	dec    decode.Decoder

	mu            sync.Mutex
	cfg           Config
	running       bool
	scanID        string
	framesSampled uint64
	lastResult    *decode.Result
	stop          chan struct{}
	stopOnce      *sync.Once
	done          chan struct{}

	// OnResult fires for every successful decode.
	OnResult func(scanID string, res decode.Result)

	// OnFrame receives each sampled native frame as JPEG, for fan-out to
	// live feed viewers.
	OnFrame func(frame []byte)

	// OnError fires when the source stops producing frames and the scan
	// aborts.
	OnError func(err error)
}

// New creates a scanner over the given source and decoder.
func New(source capture.Source, dec decode.Decoder, cfg Config) *Scanner {
	return &Scanner{
		source: source,
		dec:    dec,
		cfg:    cfg,
	}
}

// SetConfig swaps the scanning parameters. Takes effect on the next tick;
// the interval change applies when the loop re-arms its ticker.
func (s *Scanner) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Config returns the current scanning parameters.
func (s *Scanner) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Start begins the sampling loop. Returns ErrAlreadyRunning if a scan is in
// progress.
func (s *Scanner) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.scanID = uuid.NewString()
	s.framesSampled = 0
	s.stop = make(chan struct{})
	s.stopOnce = &sync.Once{}
	s.done = make(chan struct{})
	scanID := s.scanID
	s.mu.Unlock()

	log.Info("scan started", "scan_id", scanID, "interval", s.Config().Interval())
	go s.loop(ctx)
	return nil
}

// Stop ends the sampling loop and waits for it to drain. Idempotent.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	stop := s.stop
	once := s.stopOnce
	done := s.done
	s.mu.Unlock()

	once.Do(func() { close(stop) })
	<-done
}

// Running reports whether a live scan is in progress.
func (s *Scanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns a snapshot of the scanner state.
func (s *Scanner) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:       s.running,
		ScanID:        s.scanID,
		FramesSampled: s.framesSampled,
		LastResult:    s.lastResult,
	}
}

// Viewfinder returns the current overlay geometry: the scan region in
// rendered coordinates and, when shading is enabled, the rectangles that
// darken everything outside it.
func (s *Scanner) Viewfinder() (viewfinder.Rect, []viewfinder.Rect) {
	cfg := s.Config()
	region := viewfinder.Region(cfg.RenderWidth, cfg.RenderHeight, cfg.ViewfinderRatio, cfg.ViewfinderMaxSide)
	if !cfg.Shaded {
		return region, nil
	}
	return region, viewfinder.Shades(cfg.RenderWidth, cfg.RenderHeight, region)
}

// loop is the single repeating timer at the heart of the scanner. One tick,
// one sample, no queueing.
func (s *Scanner) loop(ctx context.Context) {
	defer s.finish()

	ticker := time.NewTicker(s.Config().Interval())
	defer ticker.Stop()

	readFailures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			// Pick up interval changes made through the API, even while
			// the source is erroring
			ticker.Reset(s.Config().Interval())

			hit, err := s.sample()
			if err != nil {
				readFailures++
				if readFailures >= maxConsecutiveReadFailures {
					log.Error("frame source dead, aborting scan", "failures", readFailures, "error", err)
					if s.OnError != nil {
						s.OnError(fmt.Errorf("frame source failed %d times: %w", readFailures, err))
					}
					return
				}
				continue
			}
			readFailures = 0

			if hit && s.Config().StopOnDecode {
				return
			}
		}
	}
}

func (s *Scanner) finish() {
	s.mu.Lock()
	s.running = false
	done := s.done
	s.mu.Unlock()
	close(done)
	log.Info("scan stopped")
}

// sample grabs one frame, crops the viewfinder region onto the canvas, and
// runs the decoder. Returns whether a code was decoded. A frame with no code
// in it is not an error.
func (s *Scanner) sample() (bool, error) {
	cfg := s.Config()

	frame, err := s.source.Read()
	if err != nil {
		return false, err
	}

	nativeW := frame.Bounds().Dx()
	nativeH := frame.Bounds().Dy()
	if nativeW < 1 || nativeH < 1 {
		return false, capture.ErrNoFrame
	}

	// Viewfinder geometry in rendered space, zoom applied, then mapped to
	// native pixels.
	region := viewfinder.Region(cfg.RenderWidth, cfg.RenderHeight, cfg.ViewfinderRatio, cfg.ViewfinderMaxSide)
	region = viewfinder.Zoom(region, cfg.ZoomLevel)
	src := viewfinder.SourceRect(region, cfg.RenderWidth, cfg.RenderHeight, nativeW, nativeH)

	canvas := renderRegion(frame, src, cfg.CanvasWidth, cfg.CanvasHeight)

	s.mu.Lock()
	s.framesSampled++
	scanID := s.scanID
	s.mu.Unlock()

	s.emitFrame(frame)

	results := s.runDecoder(canvas, cfg)
	if len(results) == 0 {
		return false, nil
	}

	s.mu.Lock()
	s.lastResult = &results[len(results)-1]
	s.mu.Unlock()

	for _, res := range results {
		log.Info("decoded", "scan_id", scanID, "format", res.Format, "text", res.Text)
		if s.OnResult != nil {
			s.OnResult(scanID, res)
		}
	}
	return true, nil
}

func (s *Scanner) runDecoder(canvas image.Image, cfg Config) []decode.Result {
	if td, ok := s.dec.(tunableDecoder); ok {
		td.SetTryHarder(cfg.TryHarder)
	}

	if cfg.DecodeAll {
		if md, ok := s.dec.(multiDecoder); ok {
			results, err := md.DecodeAll(canvas)
			if err != nil {
				return nil
			}
			return results
		}
	}

	res, err := s.dec.Decode(canvas)
	if err != nil {
		if !errors.Is(err, decode.ErrNotFound) {
			log.Debug("decode failed", "error", err)
		}
		return nil
	}
	return []decode.Result{*res}
}

func (s *Scanner) emitFrame(frame image.Image) {
	if s.OnFrame == nil {
		return
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return
	}
	s.OnFrame(buf.Bytes())
}

// DecodeImage runs the still-image path: containment-fit the image onto the
// canvas, draw once, decode once. One-shot latency does not matter, so the
// decoder always tries hard here. Mutually exclusive with a live scan.
func (s *Scanner) DecodeImage(img image.Image) (*decode.Result, error) {
	if s.Running() {
		return nil, ErrBusy
	}

	cfg := s.Config()
	canvas := fitImage(img, cfg.CanvasWidth, cfg.CanvasHeight)

	if td, ok := s.dec.(tunableDecoder); ok {
		td.SetTryHarder(true)
	}

	res, err := s.dec.Decode(canvas)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastResult = res
	s.mu.Unlock()
	return res, nil
}

// DecodeFile loads an image from a file path or URL and decodes it via the
// still-image path.
func (s *Scanner) DecodeFile(pathOrURL string) (*decode.Result, error) {
	still, err := capture.LoadStill(pathOrURL)
	if err != nil {
		return nil, err
	}
	defer still.Close()

	img, err := still.Read()
	if err != nil {
		return nil, err
	}
	return s.DecodeImage(img)
}
