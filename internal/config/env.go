// Package config provides environment configuration helpers for qrscan commands.
package config

import (
	"os"
	"strconv"
)

// Defaults for the scanner service.
const (
	DefaultPort     = "8780"
	DefaultDeviceID = "0"
)

// Port returns the dashboard port from QRSCAN_PORT or the default.
func Port() string {
	if p := os.Getenv("QRSCAN_PORT"); p != "" {
		return p
	}
	return DefaultPort
}

// DeviceID returns the capture device from QRSCAN_DEVICE or the default.
// Accepts either a numeric index ("0") or a device path ("/dev/video0").
func DeviceID() string {
	if d := os.Getenv("QRSCAN_DEVICE"); d != "" {
		return d
	}
	return DefaultDeviceID
}

// LogLevel returns the log level from QRSCAN_LOG_LEVEL or "info".
func LogLevel() string {
	if l := os.Getenv("QRSCAN_LOG_LEVEL"); l != "" {
		return l
	}
	return "info"
}

// SignallingURL returns the remote camera signalling server URL from
// QRSCAN_SIGNALLING, or empty when no remote source is configured.
func SignallingURL() string {
	return os.Getenv("QRSCAN_SIGNALLING")
}

// IntEnv returns the integer value of an env var, or the fallback when the
// variable is unset or not a number.
func IntEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
