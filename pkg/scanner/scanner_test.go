package scanner

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	qr "github.com/makiuchi-d/gozxing/qrcode"

	"github.com/pixelgrove/qrscan/pkg/decode"
	"github.com/pixelgrove/qrscan/pkg/viewfinder"
)

// fakeSource serves a fixed frame, optionally failing every read.
type fakeSource struct {
	frame image.Image
	fail  bool

	mu    sync.Mutex
	reads int
}

func newFakeSource(w, h int) *fakeSource {
	return &fakeSource{frame: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (f *fakeSource) Read() (image.Image, error) {
	f.mu.Lock()
	f.reads++
	f.mu.Unlock()
	if f.fail {
		return nil, errors.New("device gone")
	}
	return f.frame, nil
}

func (f *fakeSource) Bounds() (int, int) {
	b := f.frame.Bounds()
	return b.Dx(), b.Dy()
}

func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// fakeDecoder misses until hitAfter calls, then reports a fixed result.
type fakeDecoder struct {
	mu       sync.Mutex
	calls    int
	hitAfter int
	text     string
}

func (d *fakeDecoder) Decode(img image.Image) (*decode.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.hitAfter > 0 && d.calls >= d.hitAfter {
		return &decode.Result{Text: d.text, Format: "QR_CODE", At: time.Now()}, nil
	}
	return nil, decode.ErrNotFound
}

func (d *fakeDecoder) Close() error { return nil }

// tunableFakeDecoder additionally records the effort level requested before
// each decode.
type tunableFakeDecoder struct {
	fakeDecoder

	effortMu sync.Mutex
	efforts  []bool
}

func (d *tunableFakeDecoder) SetTryHarder(on bool) {
	d.effortMu.Lock()
	d.efforts = append(d.efforts, on)
	d.effortMu.Unlock()
}

func (d *tunableFakeDecoder) lastEffort() (bool, bool) {
	d.effortMu.Lock()
	defer d.effortMu.Unlock()
	if len(d.efforts) == 0 {
		return false, false
	}
	return d.efforts[len(d.efforts)-1], true
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleIntervalMs = 10
	cfg.CanvasWidth = 64
	cfg.CanvasHeight = 64
	return cfg
}

func TestScanner_StartStop(t *testing.T) {
	s := New(newFakeSource(320, 240), &fakeDecoder{}, testConfig())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.Running() {
		t.Error("Expected scanner to be running")
	}

	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Expected ErrAlreadyRunning, got %v", err)
	}

	s.Stop()
	if s.Running() {
		t.Error("Expected scanner to be stopped")
	}

	// Stop is idempotent
	s.Stop()
}

func TestScanner_StopOnDecode(t *testing.T) {
	src := newFakeSource(320, 240)
	dec := &fakeDecoder{hitAfter: 3, text: "ticket-42"}
	s := New(src, dec, testConfig())

	results := make(chan decode.Result, 1)
	var gotScanID string
	s.OnResult = func(scanID string, res decode.Result) {
		gotScanID = scanID
		results <- res
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case res := <-results:
		if res.Text != "ticket-42" {
			t.Errorf("Expected ticket-42, got %q", res.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for decode result")
	}

	if gotScanID == "" {
		t.Error("Expected a scan id on the result callback")
	}

	// Loop stops itself after the hit
	deadline := time.Now().Add(time.Second)
	for s.Running() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Running() {
		t.Error("Expected scanner to stop after decode")
	}

	status := s.Status()
	if status.LastResult == nil || status.LastResult.Text != "ticket-42" {
		t.Errorf("Expected last result recorded, got %+v", status.LastResult)
	}
	if status.FramesSampled < 3 {
		t.Errorf("Expected at least 3 sampled frames, got %d", status.FramesSampled)
	}
}

func TestScanner_KeepScanningWithoutStopOnDecode(t *testing.T) {
	cfg := testConfig()
	cfg.StopOnDecode = false

	dec := &fakeDecoder{hitAfter: 1, text: "again"}
	s := New(newFakeSource(320, 240), dec, cfg)

	var mu sync.Mutex
	hits := 0
	s.OnResult = func(string, decode.Result) {
		mu.Lock()
		hits++
		mu.Unlock()
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	mu.Lock()
	defer mu.Unlock()
	if hits < 2 {
		t.Errorf("Expected repeated hits without stop_on_decode, got %d", hits)
	}
}

func TestScanner_DeadSourceAborts(t *testing.T) {
	src := newFakeSource(320, 240)
	src.fail = true
	s := New(src, &fakeDecoder{}, testConfig())

	errs := make(chan error, 1)
	s.OnError = func(err error) { errs <- err }

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case <-errs:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for source failure")
	}

	deadline := time.Now().Add(time.Second)
	for s.Running() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Running() {
		t.Error("Expected scanner to abort on dead source")
	}
}

func TestScanner_ContextCancel(t *testing.T) {
	s := New(newFakeSource(320, 240), &fakeDecoder{}, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for s.Running() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Running() {
		t.Error("Expected scanner to stop on context cancel")
	}
}

func TestScanner_OnFrameFanout(t *testing.T) {
	s := New(newFakeSource(320, 240), &fakeDecoder{}, testConfig())

	frames := make(chan []byte, 8)
	s.OnFrame = func(frame []byte) {
		select {
		case frames <- frame:
		default:
		}
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	select {
	case frame := <-frames:
		if len(frame) == 0 {
			t.Error("Expected non-empty JPEG frame")
		}
		// JPEG magic
		if frame[0] != 0xFF || frame[1] != 0xD8 {
			t.Errorf("Expected JPEG frame, got leading bytes %x %x", frame[0], frame[1])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for frame fan-out")
	}
}

func TestScanner_DecodeImageBusy(t *testing.T) {
	s := New(newFakeSource(320, 240), &fakeDecoder{}, testConfig())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	_, err := s.DecodeImage(image.NewRGBA(image.Rect(0, 0, 64, 64)))
	if !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy during live scan, got %v", err)
	}
}

func TestScanner_TryHarderFollowsConfig(t *testing.T) {
	cfg := testConfig()
	dec := &tunableFakeDecoder{}
	s := New(newFakeSource(320, 240), dec, cfg)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	waitForEffort := func(want bool) bool {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if got, ok := dec.lastEffort(); ok && got == want {
				return true
			}
			time.Sleep(10 * time.Millisecond)
		}
		return false
	}

	if !waitForEffort(false) {
		t.Fatal("Expected decoder without try-harder initially")
	}

	cfg.TryHarder = true
	if err := s.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if !waitForEffort(true) {
		t.Error("Expected try-harder on the decoder after config update")
	}

	cfg.TryHarder = false
	if err := s.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if !waitForEffort(false) {
		t.Error("Expected try-harder off again after config update")
	}
}

func TestScanner_DecodeImageAlwaysTriesHard(t *testing.T) {
	dec := &tunableFakeDecoder{}
	dec.hitAfter = 1
	dec.text = "one-shot"

	// Live config has try-harder off; the one-shot path enables it anyway
	s := New(newFakeSource(320, 240), dec, testConfig())

	res, err := s.DecodeImage(image.NewRGBA(image.Rect(0, 0, 64, 64)))
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if res.Text != "one-shot" {
		t.Errorf("Expected one-shot, got %q", res.Text)
	}
	if got, ok := dec.lastEffort(); !ok || !got {
		t.Error("Expected still-image decode to enable try-harder")
	}
}

func TestScanner_IntervalChangeAppliesWhileSourceErroring(t *testing.T) {
	src := newFakeSource(320, 240)
	src.fail = true

	cfg := testConfig()
	cfg.SampleIntervalMs = 100
	s := New(src, &fakeDecoder{}, cfg)

	errs := make(chan error, 1)
	s.OnError = func(err error) { errs <- err }

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	cfg.SampleIntervalMs = 10
	if err := s.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}

	// 30 read failures at the original 100ms interval would take ~3s; with
	// the 10ms interval applied the abort arrives well under the deadline
	select {
	case <-errs:
	case <-time.After(1500 * time.Millisecond):
		t.Fatal("Timed out: interval change ignored while source erroring")
	}
}

// encodeQR renders a QR code into a grayscale image for the still path test.
func encodeQR(t *testing.T, text string, size int) image.Image {
	t.Helper()

	matrix, err := qr.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	if err != nil {
		t.Fatalf("Failed to encode test QR: %v", err)
	}

	img := image.NewGray(image.Rect(0, 0, matrix.GetWidth(), matrix.GetHeight()))
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			if matrix.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestScanner_DecodeImageStillPath(t *testing.T) {
	cfg := testConfig()
	cfg.CanvasWidth = 400
	cfg.CanvasHeight = 400

	s := New(newFakeSource(320, 240), decode.NewZXing(decode.StillConfig()), cfg)

	// Larger than the canvas, forcing the containment-fit downscale
	img := encodeQR(t, "still-image-path", 800)

	res, err := s.DecodeImage(img)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if res.Text != "still-image-path" {
		t.Errorf("Expected still-image-path, got %q", res.Text)
	}
}

func TestScanner_ViewfinderGeometry(t *testing.T) {
	cfg := testConfig()
	cfg.RenderWidth = 640
	cfg.RenderHeight = 480
	cfg.ViewfinderRatio = 0.75

	s := New(newFakeSource(640, 480), &fakeDecoder{}, cfg)

	region, shades := s.Viewfinder()
	if region.W != 360 || region.H != 360 {
		t.Errorf("Expected 360x360 region, got %dx%d", region.W, region.H)
	}
	if len(shades) != 4 {
		t.Errorf("Expected 4 shades, got %d", len(shades))
	}

	cfg.Shaded = false
	if err := s.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	_, shades = s.Viewfinder()
	if shades != nil {
		t.Errorf("Expected no shades when shading disabled, got %d", len(shades))
	}
}

func TestRenderRegion_FixedCanvas(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 1280, 720))
	src := viewfinder.Rect{X: 400, Y: 200, W: 320, H: 320}

	canvas := renderRegion(frame, src, 640, 480)

	b := canvas.Bounds()
	if b.Dx() != 640 || b.Dy() != 480 {
		t.Errorf("Expected 640x480 canvas, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestFitImage_CenteredLetterbox(t *testing.T) {
	// A wide image on a square canvas leaves white bands above and below
	img := image.NewRGBA(image.Rect(0, 0, 800, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 800; x++ {
			img.Set(x, y, color.RGBA{A: 255}) // black
		}
	}

	canvas := fitImage(img, 400, 400)

	// Scaled content is 400x100 centered at y 150..250
	top := canvas.RGBAAt(200, 10)
	if top.R != 255 || top.G != 255 || top.B != 255 {
		t.Errorf("Expected white letterbox band, got %+v", top)
	}

	center := canvas.RGBAAt(200, 200)
	if center.R != 0 || center.G != 0 || center.B != 0 {
		t.Errorf("Expected image content at center, got %+v", center)
	}
}
