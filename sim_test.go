package bandctl

import (
	"bufio"
	"io"
	"math"
	"testing"
)

func TestSimPort_LinesAndGarbage(t *testing.T) {
	p := NewSimPort(SimConfig{SampleRate: 100, Amplitude: 5000, Frequency: 5, GarbageEvery: 10, Limit: 100})
	sc := bufio.NewScanner(p)

	var values, garbage int
	for sc.Scan() {
		v, ok := ParseSample(sc.Text())
		if !ok {
			garbage++
			continue
		}
		if math.Abs(v) > SimRange {
			t.Fatalf("sample %v outside ±%v", v, SimRange)
		}
		values++
	}
	if values != 100 || garbage != 10 {
		t.Errorf("values=%d garbage=%d", values, garbage)
	}

	if _, err := p.Read(make([]byte, 8)); err != io.EOF {
		t.Errorf("after limit err = %v", err)
	}
	p.Close()
	if _, err := p.Read(make([]byte, 8)); err != io.ErrClosedPipe {
		t.Errorf("after close err = %v", err)
	}
	if _, err := p.Write([]byte("1")); err != io.ErrClosedPipe {
		t.Errorf("write after close err = %v", err)
	}
}
