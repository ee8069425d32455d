package scanner

// Preset names for common configurations
const (
	PresetDefault  = "default"
	PresetFast     = "fast"
	PresetThorough = "thorough"
	PresetZoom2x   = "zoom2x"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:  DefaultConfig(),
		PresetFast:     FastConfig(),
		PresetThorough: ThoroughConfig(),
		PresetZoom2x:   Zoom2xConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetDefault, PresetFast, PresetThorough, PresetZoom2x}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// FastConfig samples aggressively for snappy scans of clean codes.
func FastConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleIntervalMs = 100
	cfg.ViewfinderRatio = 0.8
	return cfg
}

// ThoroughConfig trades latency for hit rate on damaged or small codes.
func ThoroughConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleIntervalMs = 500
	cfg.TryHarder = true
	cfg.DecodeAll = true
	cfg.StopOnDecode = false
	return cfg
}

// Zoom2xConfig returns 2x digital zoom configuration for distant codes.
func Zoom2xConfig() Config {
	cfg := DefaultConfig()
	cfg.ZoomLevel = 2.0
	return cfg
}
