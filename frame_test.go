package bandctl

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestBuildFrame(t *testing.T) {
	cfg, _ := DefaultConfig().Normalize()
	raw := generateSine(cfg.WindowSize(), 10, 100, 300, 512)

	f := BuildFrame(raw, cfg)
	if len(f.Display) != len(raw) {
		t.Fatalf("display length %d", len(f.Display))
	}
	if math.Abs(f.PeakFrequency-10) > 0.5 {
		t.Errorf("peak = %.2f Hz, want 10", f.PeakFrequency)
	}
	if len(f.Bands.Fractions) != len(cfg.Spectrum.Bands) {
		t.Errorf("got %d band fractions", len(f.Bands.Fractions))
	}
	for i, b := range f.Bands.Fractions {
		if b.Name != cfg.Spectrum.Bands[i].Name {
			t.Errorf("band order: %s at %d", b.Name, i)
		}
	}
}

func TestBandHistory(t *testing.T) {
	h := newBandHistory(5)
	var out map[string][]float64
	for i := 1; i <= 3; i++ {
		out = h.push(BandPowers{Fractions: []BandPowerFraction{{Name: "Alpha", Fraction: float64(i) / 10}}})
	}
	got := out["Alpha"]
	want := []float64{0, 0, 0.1, 0.2, 0.3}
	if len(got) != len(want) {
		t.Fatalf("history %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history %v, want %v", got, want)
		}
	}
}

func TestBandHistory_Resize(t *testing.T) {
	h := newBandHistory(4)
	for i := 1; i <= 4; i++ {
		h.push(BandPowers{Fractions: []BandPowerFraction{{Name: "Beta", Fraction: float64(i)}}})
	}

	h.resize(2)
	out := h.push(BandPowers{Fractions: []BandPowerFraction{{Name: "Beta", Fraction: 5}}})
	if got := out["Beta"]; len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Fatalf("shrunk history %v, want [4 5]", got)
	}

	h.resize(5)
	out = h.push(BandPowers{Fractions: []BandPowerFraction{{Name: "Beta", Fraction: 6}}})
	want := []float64{0, 0, 4, 5, 6}
	got := out["Beta"]
	if len(got) != len(want) {
		t.Fatalf("grown history %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("grown history %v, want %v", got, want)
		}
	}
}

func TestConsoleSink_Every(t *testing.T) {
	var buf bytes.Buffer
	c := &ConsoleSink{W: &buf, Every: 2}
	f := &Frame{
		Bands:         BandPowers{Fractions: []BandPowerFraction{{Name: "Alpha", Fraction: 0.75}}},
		PeakFrequency: 10,
	}
	c.Publish(f)
	if buf.Len() != 0 {
		t.Fatalf("printed on first frame: %q", buf.String())
	}
	c.Publish(f)
	if !strings.Contains(buf.String(), "Alpha=0.75") || !strings.Contains(buf.String(), "peak=10.0Hz") {
		t.Errorf("output %q", buf.String())
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &collectSink{}, &collectSink{}
	MultiSink{a, b}.Publish(&Frame{})
	if n, _ := a.snapshot(); n != 1 {
		t.Error("first sink missed frame")
	}
	if n, _ := b.snapshot(); n != 1 {
		t.Error("second sink missed frame")
	}
}
