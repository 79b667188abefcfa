package Filters

import (
	"math"
	"testing"
)

func sine(n int, freq, fs, amp, offset float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp*math.Sin(2*math.Pi*freq*float64(i)/fs) + offset
	}
	return out
}

func TestRemoveDC_ZeroMean(t *testing.T) {
	inputs := [][]float64{
		sine(200, 3, 100, 1, 512),
		{1, 2, 3, 4, 5, 6, 7},
		{-1000, 0.001, 33, 1e6},
	}
	for _, x := range inputs {
		y := RemoveDC(x)
		if len(y) != len(x) {
			t.Fatalf("length changed: %d -> %d", len(x), len(y))
		}
		if m := Mean(y); math.Abs(m) > 1e-9*math.Max(1, math.Abs(Mean(x))) {
			t.Errorf("mean after DC removal = %g", m)
		}
	}
}

func TestMovingAverage_PreservesLength(t *testing.T) {
	x := sine(200, 10, 100, 1, 0)
	for _, n := range []int{1, 2, 5, 17, 200} {
		if got := len(MovingAverage(x, n)); got != len(x) {
			t.Errorf("MovingAverage(n=%d) length = %d, want %d", n, got, len(x))
		}
	}
}

func TestMovingAverage_ValuesAndFlatPad(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	got := MovingAverage(x, 3)
	want := []float64{2, 2, 2, 3, 4, 5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("MovingAverage = %v, want %v", got, want)
		}
	}
}

func TestMovingAverage_ShortInputUnchanged(t *testing.T) {
	x := []float64{1, 9}
	got := MovingAverage(x, 5)
	if got[0] != 1 || got[1] != 9 {
		t.Errorf("got %v", got)
	}
	got[0] = 100
	if x[0] != 1 {
		t.Error("MovingAverage must not alias its input")
	}
}

func TestZScore(t *testing.T) {
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9} // mean 5, std 2
	z := ZScore(x)
	if math.Abs(z[0]+1.5) > 1e-12 || math.Abs(z[7]-2) > 1e-12 {
		t.Errorf("ZScore = %v", z)
	}
}

func TestZScore_FlatSignal(t *testing.T) {
	z := ZScore([]float64{3, 3, 3, 3})
	for _, v := range z {
		if v != 0 || math.IsNaN(v) {
			t.Fatalf("flat signal z-score = %v", z)
		}
	}
}

func TestConditioner_DisplayIsIndependent(t *testing.T) {
	raw := sine(100, 5, 100, 10, 50)
	c := Conditioner{RemoveDC: true, SmoothN: 3, ZScore: true}
	out := c.Apply(raw)

	if len(out.Analysis) != 100 || len(out.Display) != 100 {
		t.Fatalf("lengths %d/%d", len(out.Analysis), len(out.Display))
	}
	if sd := StdDev(out.Display, Mean(out.Display)); math.Abs(sd-1) > 1e-9 {
		t.Errorf("display std = %v, want 1", sd)
	}
	if raw[0] != 50 {
		t.Error("Apply modified raw input")
	}

	// 写显示通道不能影响分析通道
	before := out.Analysis[10]
	out.Display[10] = 1e9
	if out.Analysis[10] != before {
		t.Error("display branch aliases analysis branch")
	}
}

func TestConditioner_NoZScoreDisplayIsCopy(t *testing.T) {
	raw := sine(100, 5, 100, 10, 50)
	out := Conditioner{RemoveDC: true, SmoothN: 1}.Apply(raw)
	for i := range out.Display {
		if out.Display[i] != out.Analysis[i] {
			t.Fatalf("display[%d] = %v, analysis = %v", i, out.Display[i], out.Analysis[i])
		}
	}
	out.Display[0] = 1e9
	if out.Analysis[0] == 1e9 {
		t.Error("display branch aliases analysis branch")
	}
}
