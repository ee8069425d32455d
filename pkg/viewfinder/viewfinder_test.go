package viewfinder

import "testing"

func TestRegion_Centered(t *testing.T) {
	r := Region(640, 480, 0.75, 0)

	// Short side is 480, 75% = 360
	if r.W != 360 || r.H != 360 {
		t.Errorf("Expected 360x360 region, got %dx%d", r.W, r.H)
	}
	if r.X != 140 || r.Y != 60 {
		t.Errorf("Expected region at (140, 60), got (%d, %d)", r.X, r.Y)
	}
}

func TestRegion_MaxSideCap(t *testing.T) {
	r := Region(1920, 1080, 0.9, 400)

	if r.W != 400 || r.H != 400 {
		t.Errorf("Expected capped 400x400 region, got %dx%d", r.W, r.H)
	}

	// Still centered after capping
	if r.X != 760 || r.Y != 340 {
		t.Errorf("Expected region at (760, 340), got (%d, %d)", r.X, r.Y)
	}
}

func TestRegion_InvalidRatio(t *testing.T) {
	// Out-of-range ratios fall back to the full short side
	r := Region(640, 480, 0, 0)
	if r.W != 480 || r.H != 480 {
		t.Errorf("Expected 480x480 region for ratio 0, got %dx%d", r.W, r.H)
	}

	r = Region(640, 480, 1.5, 0)
	if r.W != 480 {
		t.Errorf("Expected 480 side for ratio 1.5, got %d", r.W)
	}
}

func TestRegion_ZeroFrame(t *testing.T) {
	r := Region(0, 0, 0.75, 0)
	if !r.Empty() {
		t.Errorf("Expected empty region for zero frame, got %+v", r)
	}
}

func TestShades_FourSides(t *testing.T) {
	region := Rect{X: 140, Y: 60, W: 360, H: 360}
	shades := Shades(640, 480, region)

	if len(shades) != 4 {
		t.Fatalf("Expected 4 shades, got %d", len(shades))
	}

	left, right, top, bottom := shades[0], shades[1], shades[2], shades[3]

	if left.X != 0 || left.W != 140 || left.H != 480 {
		t.Errorf("Left shade wrong: %+v", left)
	}
	if right.X != 500 || right.W != 140 || right.H != 480 {
		t.Errorf("Right shade wrong: %+v", right)
	}
	if top.X != 140 || top.Y != 0 || top.W != 360 || top.H != 60 {
		t.Errorf("Top shade wrong: %+v", top)
	}
	if bottom.Y != 420 || bottom.W != 360 || bottom.H != 60 {
		t.Errorf("Bottom shade wrong: %+v", bottom)
	}
}

func TestShades_TileComplement(t *testing.T) {
	region := Rect{X: 100, Y: 50, W: 200, H: 150}
	shades := Shades(640, 480, region)

	// Shades plus region must account for every frame pixel exactly once
	area := region.W * region.H
	for _, s := range shades {
		area += s.W * s.H
	}

	if area != 640*480 {
		t.Errorf("Expected shades+region to cover %d pixels, got %d", 640*480, area)
	}
}

func TestShades_FullFrameRegion(t *testing.T) {
	region := Rect{X: 0, Y: 0, W: 640, H: 480}
	shades := Shades(640, 480, region)

	if len(shades) != 0 {
		t.Errorf("Expected no shades for full-frame region, got %d", len(shades))
	}
}

func TestZoom_HalvesSampledArea(t *testing.T) {
	region := Rect{X: 100, Y: 100, W: 200, H: 200}
	zoomed := Zoom(region, 2.0)

	if zoomed.W != 100 || zoomed.H != 100 {
		t.Errorf("Expected 100x100 at 2x zoom, got %dx%d", zoomed.W, zoomed.H)
	}

	// Still centered on the same point
	if zoomed.X != 150 || zoomed.Y != 150 {
		t.Errorf("Expected zoomed region at (150, 150), got (%d, %d)", zoomed.X, zoomed.Y)
	}
}

func TestZoom_LevelOneNoop(t *testing.T) {
	region := Rect{X: 10, Y: 20, W: 30, H: 40}
	if Zoom(region, 1.0) != region {
		t.Error("Expected zoom level 1 to return region unchanged")
	}
	if Zoom(region, 0.5) != region {
		t.Error("Expected zoom level < 1 to return region unchanged")
	}
}

func TestSourceRect_ScalesToNative(t *testing.T) {
	// Rendered at 320x240, native 1280x960: 4x in both axes
	region := Rect{X: 40, Y: 30, W: 160, H: 120}
	src := SourceRect(region, 320, 240, 1280, 960)

	if src.X != 160 || src.Y != 120 {
		t.Errorf("Expected source at (160, 120), got (%d, %d)", src.X, src.Y)
	}
	if src.W != 640 || src.H != 480 {
		t.Errorf("Expected 640x480 source rect, got %dx%d", src.W, src.H)
	}
}

func TestSourceRect_NonUniformScale(t *testing.T) {
	// Different scale factors per axis
	region := Rect{X: 0, Y: 0, W: 100, H: 100}
	src := SourceRect(region, 200, 100, 400, 400)

	if src.W != 200 {
		t.Errorf("Expected width 200 (2x), got %d", src.W)
	}
	if src.H != 400 {
		t.Errorf("Expected height 400 (4x), got %d", src.H)
	}
}

func TestSourceRect_ClampedToNative(t *testing.T) {
	region := Rect{X: 300, Y: 220, W: 100, H: 100}
	src := SourceRect(region, 320, 240, 320, 240)

	if src.X+src.W > 320 || src.Y+src.H > 240 {
		t.Errorf("Source rect exceeds native bounds: %+v", src)
	}
}

func TestClamp_MinimumSize(t *testing.T) {
	r := Clamp(Rect{X: -10, Y: -10, W: 0, H: 0}, 640, 480)

	if r.X != 0 || r.Y != 0 {
		t.Errorf("Expected origin clamp to (0, 0), got (%d, %d)", r.X, r.Y)
	}
	if r.W < 1 || r.H < 1 {
		t.Errorf("Expected at least 1x1, got %dx%d", r.W, r.H)
	}
}

func TestContainFit_NoUpscale(t *testing.T) {
	w, h := ContainFit(100, 50, 800, 600)
	if w != 100 || h != 50 {
		t.Errorf("Expected 100x50 unchanged, got %dx%d", w, h)
	}
}

func TestContainFit_WidthBound(t *testing.T) {
	w, h := ContainFit(1600, 800, 800, 600)
	if w != 800 || h != 400 {
		t.Errorf("Expected 800x400, got %dx%d", w, h)
	}
}

func TestContainFit_HeightBound(t *testing.T) {
	w, h := ContainFit(400, 1200, 800, 600)
	if w != 200 || h != 600 {
		t.Errorf("Expected 200x600, got %dx%d", w, h)
	}
}

func TestContainFit_BothBound(t *testing.T) {
	// Width fit alone leaves the height oversized, forcing a second pass
	w, h := ContainFit(1600, 2400, 800, 600)

	if w > 800 || h > 600 {
		t.Errorf("Expected fit within 800x600, got %dx%d", w, h)
	}
	if h != 600 {
		t.Errorf("Expected height pinned at 600, got %d", h)
	}

	// Aspect ratio preserved within rounding: 1600/2400 = 2/3
	if w != 400 {
		t.Errorf("Expected width 400 to preserve aspect, got %d", w)
	}
}

func TestContainFit_DegenerateInput(t *testing.T) {
	w, h := ContainFit(0, 0, 800, 600)
	if w != 1 || h != 1 {
		t.Errorf("Expected 1x1 for zero input, got %dx%d", w, h)
	}
}
