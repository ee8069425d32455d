// Package device enumerates video capture devices.
package device

import "strings"

// KindVideoInput is the only device kind the scanner cares about.
const KindVideoInput = "videoinput"

// Device describes a video capture device.
type Device struct {
	ID    string `json:"id"`    // Stable identifier (path on linux, index elsewhere)
	Index int    `json:"index"` // Capture index for opening
	Name  string `json:"name"`  // Human-readable label
	Kind  string `json:"kind"`  // Always "videoinput" for listed devices
}

// List returns the available video input devices. Devices of any other kind
// are filtered out.
func List() ([]Device, error) {
	all, err := list()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(all))
	for _, d := range all {
		if d.Kind != KindVideoInput {
			continue
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Find returns the first device whose name contains the label,
// case-insensitively. Returns nil if no device matches.
func Find(label string) (*Device, error) {
	devices, err := List()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(label)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), needle) {
			return &devices[i], nil
		}
	}
	return nil, nil
}
