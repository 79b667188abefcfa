package bandctl

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Frame 显示周期的输出
type Frame struct {
	Session       string               `json:"session"`
	Time          time.Time            `json:"time"`
	SampleRate    float64              `json:"sample_rate"`
	Display       []float64            `json:"display,omitempty"`
	PSD           *PSDResult           `json:"-"`
	Bands         BandPowers           `json:"bands"`
	PeakFrequency float64              `json:"peak_hz"`
	History       map[string][]float64 `json:"history,omitempty"`
}

// BuildFrame 对一个快照执行调理与频谱分析，得到显示帧
func BuildFrame(raw []float64, cfg *Config) *Frame {
	cond := Condition(raw, cfg)
	f := &Frame{
		Time:       time.Now(),
		SampleRate: cfg.Acquisition.SampleRate,
		Display:    cond.Display,
	}
	if spec, ok := AnalyzeSpectrum(cond.Analysis, cfg); ok {
		f.PSD = spec.PSD
		f.Bands = spec.Bands
		total := cfg.Spectrum.Total
		f.PeakFrequency, _ = spec.PSD.Peak(total.Lo, total.Hi)
	}
	return f
}

// bandHistory 各频段占比的滚动历史 (折线视图)，只由显示任务持有
type bandHistory struct {
	length  int
	streams map[string]*SampleStream
}

func newBandHistory(length int) *bandHistory {
	return &bandHistory{length: length, streams: make(map[string]*SampleStream)}
}

// resize 改变历史长度，保留最近的值，不足部分补 0
func (h *bandHistory) resize(length int) {
	if length < 1 || length == h.length {
		return
	}
	for name, old := range h.streams {
		keep := old.Len()
		if keep > length {
			keep = length
		}
		recent, _ := old.Snapshot(keep)
		s := NewSampleStream(length)
		for i := keep; i < length; i++ {
			s.Append(0)
		}
		for _, v := range recent {
			s.Append(v)
		}
		h.streams[name] = s
	}
	h.length = length
}

func (h *bandHistory) push(bp BandPowers) map[string][]float64 {
	out := make(map[string][]float64, len(bp.Fractions))
	for _, b := range bp.Fractions {
		s, ok := h.streams[b.Name]
		if !ok {
			s = NewSampleStream(h.length)
			for i := 0; i < h.length; i++ {
				s.Append(0)
			}
			h.streams[b.Name] = s
		}
		s.Append(b.Fraction)
		out[b.Name], _ = s.Snapshot(h.length)
	}
	return out
}

// FrameSink 显示帧的消费者。Publish 在显示周期内被调用，不应阻塞。
type FrameSink interface {
	Publish(f *Frame)
}

// MultiSink 扇出到多个 sink
type MultiSink []FrameSink

func (m MultiSink) Publish(f *Frame) {
	for _, s := range m {
		s.Publish(f)
	}
}

// ConsoleSink 每隔 Every 帧在终端打印一行频段占比
type ConsoleSink struct {
	W     io.Writer
	Every int
	n     int
}

func (c *ConsoleSink) Publish(f *Frame) {
	c.n++
	if c.Every > 1 && c.n%c.Every != 0 {
		return
	}
	var sb strings.Builder
	for _, b := range f.Bands.Fractions {
		fmt.Fprintf(&sb, "%s=%.2f ", b.Name, b.Fraction)
	}
	fmt.Fprintf(c.W, "[BANDS] %speak=%.1fHz\n", sb.String(), f.PeakFrequency)
}
