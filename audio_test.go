package bandctl

import "testing"

func TestDecimator(t *testing.T) {
	d := NewDecimator(8000, 100)
	var out []float64
	for i := 0; i < 240; i++ {
		if v, ok := d.Push(float64(i / 80)); ok {
			out = append(out, v)
		}
	}
	if len(out) != 3 {
		t.Fatalf("got %d outputs, want 3", len(out))
	}
	for i, v := range out {
		if v != float64(i) {
			t.Errorf("out[%d] = %v", i, v)
		}
	}
}

func TestDecimator_Passthrough(t *testing.T) {
	d := NewDecimator(50, 100)
	if v, ok := d.Push(7); !ok || v != 7 {
		t.Errorf("Push = %v, %v", v, ok)
	}
}
