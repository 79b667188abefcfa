package bandctl

import (
	"errors"
	"testing"
	"time"
)

func TestNormalize_Defaults(t *testing.T) {
	n, err := DefaultConfig().Normalize()
	if err != nil {
		t.Fatal(err)
	}
	if n.WindowSize() != 200 {
		t.Errorf("WindowSize = %d, want 200", n.WindowSize())
	}
	if n.BufferCapacity() != 800 {
		t.Errorf("BufferCapacity = %d, want 800", n.BufferCapacity())
	}
	if n.Control.Period != 120*time.Millisecond || n.Display.Period != 40*time.Millisecond {
		t.Errorf("periods %v/%v", n.Control.Period, n.Display.Period)
	}
	r, _ := DefaultRangeConfig().Normalize()
	if r.Control.Mode != ModeRange || r.Control.Period != 80*time.Millisecond {
		t.Errorf("range defaults: %s %v", r.Control.Mode, r.Control.Period)
	}
}

func TestNormalize_Floors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Acquisition.SampleRate = 3
	cfg.Spectrum.WindowSeconds = 0.1
	cfg.Acquisition.BufferSeconds = 1
	cfg.Conditioning.SmoothN = 0

	n, err := cfg.Normalize()
	if err != nil {
		t.Fatal(err)
	}
	if n.Acquisition.SampleRate != MinSampleRate {
		t.Errorf("SampleRate = %v", n.Acquisition.SampleRate)
	}
	if n.Spectrum.WindowSeconds != MinWindowSeconds {
		t.Errorf("WindowSeconds = %v", n.Spectrum.WindowSeconds)
	}
	if n.WindowSize() != MinWindowSize {
		t.Errorf("WindowSize = %d, want %d", n.WindowSize(), MinWindowSize)
	}
	if n.BufferCapacity() != MinBufferSize {
		t.Errorf("BufferCapacity = %d, want %d", n.BufferCapacity(), MinBufferSize)
	}
	if n.Conditioning.SmoothN != 1 {
		t.Errorf("SmoothN = %d", n.Conditioning.SmoothN)
	}
}

func TestNormalize_SwapsInvertedBounds(t *testing.T) {
	cfg := DefaultRangeConfig()
	cfg.Range.Low, cfg.Range.High = 40, -40
	cfg.Spectrum.Bands = []BandDefinition{{Name: "Alpha", Lo: 12, Hi: 8}}

	n, err := cfg.Normalize()
	if err != nil {
		t.Fatal(err)
	}
	if n.Range.Low != -40 || n.Range.High != 40 {
		t.Errorf("range = [%v, %v]", n.Range.Low, n.Range.High)
	}
	if b := n.Spectrum.Bands[0]; b.Lo != 8 || b.Hi != 12 {
		t.Errorf("band = %+v", b)
	}
	// 不与调用方共享切片
	if cfg.Spectrum.Bands[0].Lo != 12 {
		t.Error("Normalize modified caller's bands")
	}
}

func TestNormalize_Rejects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Control.TargetBand = "Kappa"
	if _, err := cfg.Normalize(); !errors.Is(err, ErrUnknownBand) {
		t.Errorf("unknown band: err = %v", err)
	}

	cfg = DefaultConfig()
	cfg.Control.Direction = "=="
	if _, err := cfg.Normalize(); !errors.Is(err, ErrUnknownDirection) {
		t.Errorf("bad direction: err = %v", err)
	}

	cfg = DefaultConfig()
	cfg.Control.Mode = "pid"
	if _, err := cfg.Normalize(); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("bad mode: err = %v", err)
	}

	// 区间模式不检查目标频段
	cfg = DefaultRangeConfig()
	cfg.Control.TargetBand = "Kappa"
	if _, err := cfg.Normalize(); err != nil {
		t.Errorf("range mode rejected unknown band: %v", err)
	}
}

func TestNormalize_ZeroConfig(t *testing.T) {
	n, err := Config{}.Normalize()
	if err != nil {
		t.Fatalf("zero config rejected: %v", err)
	}
	if len(n.Spectrum.Bands) != len(DefaultBands()) {
		t.Fatalf("bands = %v", n.Spectrum.Bands)
	}
	if n.Control.Mode != ModeBand || n.Control.TargetBand != "Alpha" {
		t.Errorf("control = %+v", n.Control)
	}
	if n.Acquisition.SampleRate != 100 || n.WindowSize() != 200 {
		t.Errorf("fs = %v, N = %d", n.Acquisition.SampleRate, n.WindowSize())
	}
}
