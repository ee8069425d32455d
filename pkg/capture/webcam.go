package capture

import (
	"fmt"
	"image"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/pixelgrove/qrscan/internal/log"
)

// How long to wait for the camera to deliver its first frame. Cameras need a
// moment after acquisition before frames start flowing.
const (
	firstFrameTimeout = 5 * time.Second
	firstFramePoll    = 100 * time.Millisecond
)

// Webcam captures frames from a local camera via OpenCV.
type Webcam struct {
	cam    *gocv.VideoCapture
	mat    gocv.Mat
	width  int
	height int

	mu     sync.Mutex
	closed bool
}

// OpenWebcam acquires the camera identified by deviceID (a numeric capture
// index or a device path) at the requested resolution, then blocks until the
// first frame is readable so callers never sample a dead stream.
func OpenWebcam(deviceID string, width, height int) (*Webcam, error) {
	cam, err := openDevice(deviceID)
	if err != nil {
		return nil, fmt.Errorf("open camera %s: %w", deviceID, err)
	}

	if width > 0 {
		cam.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}
	if height > 0 {
		cam.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	w := &Webcam{
		cam: cam,
		mat: gocv.NewMat(),
	}

	if err := w.waitFirstFrame(); err != nil {
		w.Close()
		return nil, err
	}

	log.Info("camera ready", "device", deviceID, "width", w.width, "height", w.height)
	return w, nil
}

func openDevice(deviceID string) (*gocv.VideoCapture, error) {
	if idx, err := strconv.Atoi(deviceID); err == nil {
		return gocv.VideoCaptureDevice(idx)
	}
	return gocv.OpenVideoCapture(deviceID)
}

// waitFirstFrame polls the camera until a frame arrives or the timeout
// expires, recording the native frame dimensions from the first frame.
func (w *Webcam) waitFirstFrame() error {
	deadline := time.Now().Add(firstFrameTimeout)
	for time.Now().Before(deadline) {
		if w.cam.Read(&w.mat) && !w.mat.Empty() {
			w.width = w.mat.Cols()
			w.height = w.mat.Rows()
			return nil
		}
		time.Sleep(firstFramePoll)
	}
	return fmt.Errorf("camera produced no frames within %s: %w", firstFrameTimeout, ErrNoFrame)
}

// Read returns the current camera frame.
func (w *Webcam) Read() (image.Image, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, fmt.Errorf("camera closed: %w", ErrNoFrame)
	}
	if !w.cam.Read(&w.mat) || w.mat.Empty() {
		return nil, ErrNoFrame
	}

	img, err := w.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}

// Bounds returns the native frame dimensions.
func (w *Webcam) Bounds() (int, int) {
	return w.width, w.height
}

// Close releases the camera. Safe to call more than once.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.mat.Close()
	return w.cam.Close()
}
