package bandctl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCsvTickDebugger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	d, err := NewCsvTickDebugger(path)
	if err != nil {
		t.Fatal(err)
	}
	d.Record(Decision{Mode: ModeBand, Band: "Alpha", Value: 0.5, Threshold: 0.3, Command: CommandOn}, true)
	d.Record(Decision{Mode: ModeRange, Value: 70, Low: -50, High: 50, Command: CommandOff}, false)
	d.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), data)
	}
	if lines[0] != "Mode,Band,Value,Threshold,Low,High,Desired,Emitted" {
		t.Errorf("header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "band,Alpha,0.500000") || !strings.HasSuffix(lines[1], ",ON,1") {
		t.Errorf("row 1 %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",OFF,0") {
		t.Errorf("row 2 %q", lines[2])
	}
}
