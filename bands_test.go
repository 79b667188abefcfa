package bandctl

import (
	"math"
	"testing"
)

func TestBandPower_InclusiveEdges(t *testing.T) {
	psd := &PSDResult{
		Frequencies: []float64{0, 1, 2, 3, 4},
		Power:       []float64{1, 2, 4, 8, 16},
	}
	if got := BandPower(psd, BandDefinition{"x", 1, 3}); got != 14 {
		t.Errorf("BandPower [1,3] = %v, want 14", got)
	}
	// 颠倒的边界
	if got := BandPower(psd, BandDefinition{"x", 3, 1}); got != 14 {
		t.Errorf("BandPower [3,1] = %v, want 14", got)
	}
	if got := BandPower(psd, BandDefinition{"x", 1.2, 1.8}); got != 0 {
		t.Errorf("BandPower with no bins = %v, want 0", got)
	}
	if got := BandPower(nil, BandDefinition{"x", 0, 10}); got != 0 {
		t.Errorf("BandPower(nil) = %v", got)
	}
}

func TestBandFraction_TotalIsOne(t *testing.T) {
	psd, _ := ComputePSD(generateSine(200, 17, 100, 3, 0), 100)
	if got := BandFraction(psd, TotalBand, TotalBand); got != 1.0 {
		t.Errorf("Total/Total = %v, want exactly 1", got)
	}
}

func TestBandFraction_NegligiblePower(t *testing.T) {
	psd, _ := ComputePSD(make([]float64, 200), 100)
	for _, b := range DefaultBands() {
		if got := BandFraction(psd, b, TotalBand); got != 0 {
			t.Errorf("%s fraction of silence = %v", b.Name, got)
		}
	}
}

// 100Hz 采样、200 点、10Hz 纯正弦：Alpha 占比最大且超过 0.8
func TestExtractBandPowers_AlphaTone(t *testing.T) {
	psd, ok := ComputePSD(generateSine(200, 10, 100, 1, 0), 100)
	if !ok {
		t.Fatal("no PSD")
	}
	bp := ExtractBandPowers(psd, DefaultBands(), TotalBand)
	if len(bp.Fractions) != 5 {
		t.Fatalf("got %d fractions", len(bp.Fractions))
	}

	alpha, _ := bp.Fraction("Alpha")
	if alpha <= 0.8 {
		t.Errorf("Alpha fraction = %.3f, want > 0.8", alpha)
	}
	for _, f := range bp.Fractions {
		if f.Fraction < 0 || math.IsNaN(f.Fraction) {
			t.Errorf("%s fraction = %v", f.Name, f.Fraction)
		}
		if f.Name != "Alpha" && f.Fraction >= alpha {
			t.Errorf("%s (%.3f) >= Alpha (%.3f)", f.Name, f.Fraction, alpha)
		}
	}
	if _, ok := bp.Fraction("Kappa"); ok {
		t.Error("unknown band reported as present")
	}
}

func TestExtractBandPowers_OverlapKept(t *testing.T) {
	psd, _ := ComputePSD(generateSine(200, 10, 100, 1, 0), 100)
	bands := []BandDefinition{
		{"Alpha", 8, 12},
		{"Wide", 5, 15},
	}
	bp := ExtractBandPowers(psd, bands, TotalBand)
	a, _ := bp.Fraction("Alpha")
	w, _ := bp.Fraction("Wide")
	if w < a {
		t.Errorf("superset band %.3f < subset band %.3f", w, a)
	}
	if a+w <= 1 {
		t.Errorf("overlapping fractions should be able to exceed 1, got %.3f", a+w)
	}
}
