package scanner

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the current scanner configuration and handles updates.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// Callback when config changes (for applying to a running scanner)
	OnConfigChange func(cfg Config) error
}

// NewManager creates a new config manager with default config.
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// GetConfig returns the current scanner configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig updates the scanner configuration.
func (m *Manager) SetConfig(cfg Config) error {
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	return nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	m.mu.Lock()
	cfg := m.config
	m.mu.Unlock()

	// Check for preset first
	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		cfg = *preset
		// Remove preset from params so other overrides still apply
		delete(params, "preset")
	}

	for key, value := range params {
		switch key {
		case "sample_interval_ms":
			if v, ok := toInt(value); ok {
				cfg.SampleIntervalMs = v
			}
		case "canvas_width":
			if v, ok := toInt(value); ok {
				cfg.CanvasWidth = v
			}
		case "canvas_height":
			if v, ok := toInt(value); ok {
				cfg.CanvasHeight = v
			}
		case "render_width":
			if v, ok := toInt(value); ok {
				cfg.RenderWidth = v
			}
		case "render_height":
			if v, ok := toInt(value); ok {
				cfg.RenderHeight = v
			}
		case "viewfinder_ratio":
			if v, ok := toFloat(value); ok {
				cfg.ViewfinderRatio = v
			}
		case "viewfinder_max_side":
			if v, ok := toInt(value); ok {
				cfg.ViewfinderMaxSide = v
			}
		case "shaded":
			if v, ok := value.(bool); ok {
				cfg.Shaded = v
			}
		case "zoom_level":
			if v, ok := toFloat(value); ok {
				cfg.ZoomLevel = v
			}
		case "stop_on_decode":
			if v, ok := value.(bool); ok {
				cfg.StopOnDecode = v
			}
		case "decode_all":
			if v, ok := value.(bool); ok {
				cfg.DecodeAll = v
			}
		case "try_harder":
			if v, ok := value.(bool); ok {
				cfg.TryHarder = v
			}
		case "capture_width":
			if v, ok := toInt(value); ok {
				cfg.CaptureWidth = v
			}
		case "capture_height":
			if v, ok := toInt(value); ok {
				cfg.CaptureHeight = v
			}
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current config as a map for JSON serialization.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()

	data, _ := json.Marshal(cfg)
	var result map[string]interface{}
	json.Unmarshal(data, &result)

	return result
}

// Helper functions for type conversion

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err == nil {
			return f, true
		}
	}
	return 0, false
}
