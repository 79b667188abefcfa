package bandctl

import "testing"

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestEvaluateControl_BandMode(t *testing.T) {
	cfg, _ := DefaultConfig().Normalize()
	raw := generateSine(cfg.WindowSize(), 10, 100, 200, 512)

	d, ok := EvaluateControl(raw, cfg)
	if !ok {
		t.Fatal("no decision")
	}
	if d.Mode != ModeBand || d.Band != "Alpha" || d.Command != CommandOn {
		t.Errorf("decision = %+v", d)
	}
	if d.Value < 0.5 {
		t.Errorf("Alpha fraction = %.3f", d.Value)
	}

	if _, ok := EvaluateControl(raw[:20], cfg); ok {
		t.Error("short window should not produce a band decision")
	}
}

func TestEvaluateControl_RangeMode(t *testing.T) {
	cfg, _ := DefaultRangeConfig().Normalize()
	cfg.Conditioning.RemoveDC = false
	cfg.Conditioning.SmoothN = 1

	tests := []struct {
		v    float64
		want Command
	}{
		{10, CommandOn},
		{60, CommandOff},
		{40, CommandOn},
		{-10, CommandOn},
	}
	for _, tt := range tests {
		d, ok := EvaluateControl(constant(50, tt.v), cfg)
		if !ok {
			t.Fatalf("no decision for %v", tt.v)
		}
		if d.Command != tt.want || d.Value != tt.v {
			t.Errorf("value %v: %+v", tt.v, d)
		}
	}

	// 去直流后常数信号落在 0
	cfg.Conditioning.RemoveDC = true
	if d, _ := EvaluateControl(constant(50, 500), cfg); d.Command != CommandOn {
		t.Errorf("DC-removed constant: %+v", d)
	}
	if _, ok := EvaluateControl(nil, cfg); ok {
		t.Error("empty snapshot produced a decision")
	}
}
