package bandctl

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// PSDResult 功率谱密度，Frequencies 与 Power 按下标一一对应，长度 N/2+1
type PSDResult struct {
	Frequencies []float64
	Power       []float64
}

// SpectrumAnalyzer 单段 Hann 周期图。构造后只读，可以在多个 goroutine 间共享。
type SpectrumAnalyzer struct {
	SampleRate float64
	FFTSize    int
	Window     []float64

	windowEnergy float64 // sum(w^2)
}

// NewSpectrumAnalyzer 创建新的频谱分析器
func NewSpectrumAnalyzer(sampleRate float64, fftSize int) *SpectrumAnalyzer {
	// 汉宁窗: 0.5 * (1 - cos(2*PI*n / (N-1)))
	w := window.Hann(fftSize)
	energy := 0.0
	for _, v := range w {
		energy += v * v
	}
	return &SpectrumAnalyzer{
		SampleRate:   sampleRate,
		FFTSize:      fftSize,
		Window:       w,
		windowEnergy: energy,
	}
}

// PSD 计算 |X_k|^2 / sum(w^2)，k = 0..N/2。
// 样本数与 FFTSize 不符或少于 32 点时返回 false。
func (sa *SpectrumAnalyzer) PSD(samples []float64) (*PSDResult, bool) {
	n := sa.FFTSize
	if n < MinWindowSize || len(samples) != n || sa.windowEnergy <= 0 {
		return nil, false
	}

	// 1. 加窗
	windowed := make([]float64, n)
	for i, v := range samples {
		windowed[i] = v * sa.Window[i]
	}

	// 2. FFT
	spectrum := fft.FFTReal(windowed)

	// 3. 单边功率谱
	bins := n/2 + 1
	res := &PSDResult{
		Frequencies: make([]float64, bins),
		Power:       make([]float64, bins),
	}
	binWidth := sa.SampleRate / float64(n)
	for k := 0; k < bins; k++ {
		mag := cmplx.Abs(spectrum[k])
		res.Frequencies[k] = float64(k) * binWidth
		res.Power[k] = mag * mag / sa.windowEnergy
	}
	return res, true
}

// ComputePSD 对整段输入计算 PSD
func ComputePSD(samples []float64, sampleRate float64) (*PSDResult, bool) {
	if len(samples) < MinWindowSize {
		return nil, false
	}
	return NewSpectrumAnalyzer(sampleRate, len(samples)).PSD(samples)
}

// BinWidth 频率分辨率 (Hz)
func (r *PSDResult) BinWidth() float64 {
	if r == nil || len(r.Frequencies) < 2 {
		return 0
	}
	return r.Frequencies[1] - r.Frequencies[0]
}

// Peak 在 [lo, hi] 内寻找最强的频点，并用抛物线插值细化频率
func (r *PSDResult) Peak(lo, hi float64) (freq, power float64) {
	if r == nil {
		return 0, 0
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	maxIndex := -1
	for k, f := range r.Frequencies {
		if f < lo || f > hi {
			continue
		}
		if maxIndex == -1 || r.Power[k] > r.Power[maxIndex] {
			maxIndex = k
		}
	}
	if maxIndex == -1 {
		return 0, 0
	}

	power = r.Power[maxIndex]
	freq = r.Frequencies[maxIndex]

	// 抛物线插值
	// p = 0.5 * (alpha - gamma) / (alpha - 2*beta + gamma)
	if maxIndex > 0 && maxIndex < len(r.Power)-1 {
		alpha := r.Power[maxIndex-1]
		beta := r.Power[maxIndex]
		gamma := r.Power[maxIndex+1]
		denom := alpha - 2*beta + gamma
		if denom != 0 {
			p := 0.5 * (alpha - gamma) / denom
			if !math.IsNaN(p) && math.Abs(p) <= 1 {
				freq += p * r.BinWidth()
			}
		}
	}
	return freq, power
}
