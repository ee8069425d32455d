//go:build linux

package device

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// list scans /dev/video* and reads the card name from sysfs.
func list() ([]Device, error) {
	paths, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	devices := make([]Device, 0, len(paths))
	for _, path := range paths {
		base := filepath.Base(path) // video0
		numRaw := strings.TrimPrefix(base, "video")
		num, convErr := strconv.Atoi(numRaw)
		if convErr != nil {
			continue
		}

		name := readFirstLine(filepath.Join("/sys/class/video4linux", base, "name"))
		if name == "" {
			name = path
		}

		devices = append(devices, Device{
			ID:    path,
			Index: num,
			Name:  name,
			Kind:  KindVideoInput,
		})
	}
	return devices, nil
}

func readFirstLine(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	line := string(raw)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}
