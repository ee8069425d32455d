//go:build !linux

package device

import (
	"fmt"

	"gocv.io/x/gocv"
)

// maxProbeIndex bounds the capture-index probe on platforms without a
// device registry to scan.
const maxProbeIndex = 8

// list probes capture indices until they stop opening.
func list() ([]Device, error) {
	devices := make([]Device, 0, 2)
	for i := 0; i < maxProbeIndex; i++ {
		c, err := gocv.VideoCaptureDevice(i)
		if err != nil {
			break
		}
		opened := c.IsOpened()
		c.Close()
		if !opened {
			break
		}

		devices = append(devices, Device{
			ID:    fmt.Sprintf("%d", i),
			Index: i,
			Name:  fmt.Sprintf("Camera %d", i),
			Kind:  KindVideoInput,
		})
	}
	return devices, nil
}
