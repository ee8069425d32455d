package capture

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/pixelgrove/qrscan/internal/httpc"
)

// Still serves a single loaded image. Every Read returns the same frame;
// it exists so the one-shot decode path can share the sampling plumbing.
type Still struct {
	img image.Image
}

// LoadStill loads an image from a local file path or an HTTP(S) URL.
func LoadStill(pathOrURL string) (*Still, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return loadStillURL(pathOrURL)
	}

	f, err := os.Open(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", pathOrURL, err)
	}
	return &Still{img: img}, nil
}

func loadStillURL(url string) (*Still, error) {
	resp, err := httpc.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("fetch image %s: status %d", url, resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", url, err)
	}
	return &Still{img: img}, nil
}

// NewStill wraps an already-decoded image.
func NewStill(img image.Image) *Still {
	return &Still{img: img}
}

// Read returns the loaded image.
func (s *Still) Read() (image.Image, error) {
	if s.img == nil {
		return nil, ErrNoFrame
	}
	return s.img, nil
}

// Bounds returns the image dimensions.
func (s *Still) Bounds() (int, int) {
	if s.img == nil {
		return 0, 0
	}
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Close is a no-op for still images.
func (s *Still) Close() error {
	return nil
}
