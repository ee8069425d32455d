package decode

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/multi"
	"github.com/makiuchi-d/gozxing/multi/qrcode"
	qr "github.com/makiuchi-d/gozxing/qrcode"
)

// ZXing decodes QR codes using the gozxing port of the ZXing library.
type ZXing struct {
	reader gozxing.Reader
	multi  multi.MultipleBarcodeReader
	hints  map[gozxing.DecodeHintType]interface{}
	mu     sync.Mutex // gozxing readers keep internal state
}

// NewZXing creates a QR decoder with the given configuration.
func NewZXing(cfg Config) *ZXing {
	hints := map[gozxing.DecodeHintType]interface{}{}
	if cfg.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	return &ZXing{
		reader: qr.NewQRCodeReader(),
		multi:  qrcode.NewQRCodeMultiReader(),
		hints:  hints,
	}
}

// SetTryHarder toggles the try-harder hint for subsequent decodes. Safe to
// call between frames while scanning.
func (z *ZXing) SetTryHarder(on bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if on {
		z.hints[gozxing.DecodeHintType_TRY_HARDER] = true
	} else {
		delete(z.hints, gozxing.DecodeHintType_TRY_HARDER)
	}
}

// Decode scans the image for a single QR code.
func (z *ZXing) Decode(img image.Image) (*Result, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarize image: %w", err)
	}

	raw, err := z.reader.Decode(bmp, z.hints)
	if err != nil {
		// gozxing reports "not found" as an error; normalize it
		return nil, ErrNotFound
	}

	return fromZXing(raw), nil
}

// DecodeAll scans the image for every QR code it contains.
func (z *ZXing) DecodeAll(img image.Image) ([]Result, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarize image: %w", err)
	}

	raws, err := z.multi.DecodeMultiple(bmp, z.hints)
	if err != nil {
		return nil, ErrNotFound
	}

	results := make([]Result, 0, len(raws))
	for _, raw := range raws {
		results = append(results, *fromZXing(raw))
	}
	return results, nil
}

// Close releases the decoder. The gozxing readers hold no OS resources, so
// this only exists to satisfy the Decoder interface.
func (z *ZXing) Close() error {
	return nil
}

func fromZXing(raw *gozxing.Result) *Result {
	res := &Result{
		Text:   raw.GetText(),
		Format: raw.GetBarcodeFormat().String(),
		At:     time.Now(),
	}
	for _, p := range raw.GetResultPoints() {
		res.Points = append(res.Points, Point{X: p.GetX(), Y: p.GetY()})
	}
	return res
}
