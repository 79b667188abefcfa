package main

import (
	"bandctl"
	"fmt"
	"math"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"
)

// ============================================================================
// 1. 信号合成 (Signal Synthesizer)
// ============================================================================

type ToneConfig struct {
	SampleRate float64 // e.g., 100
	Frequency  float64 // 主频 (Hz)
	Amplitude  float64
	Offset     float64 // 直流偏置，检验去直流
	Duration   float64 // 秒
}

// GenerateTone 生成纯净正弦波
func GenerateTone(cfg ToneConfig) []float64 {
	n := int(cfg.Duration * cfg.SampleRate)
	out := make([]float64, n)
	omega := 2.0 * math.Pi * cfg.Frequency / cfg.SampleRate
	for i := range out {
		out[i] = cfg.Amplitude*math.Sin(omega*float64(i)) + cfg.Offset
	}
	return out
}

// ============================================================================
// 2. 信道效果 (Channel Effects)
// ============================================================================

type ChannelEffects struct {
	SNRdB    float64 // 信噪比 (dB)
	DriftPct float64 // 每秒的基线漂移，相对于幅度
}

// ApplyEffects 在纯净信号上叠加高斯白噪声和线性基线漂移
func ApplyEffects(signal []float64, sampleRate float64, fx ChannelEffects, rng *rand.Rand) []float64 {
	out := make([]float64, len(signal))
	copy(out, signal)

	var energy float64
	for _, s := range signal {
		energy += s * s
	}
	if energy == 0 {
		return out
	}
	pSignal := energy / float64(len(signal))

	// P_noise = P_signal / 10^(SNR/10)
	noiseScale := math.Sqrt(pSignal / math.Pow(10, fx.SNRdB/10.0))
	amp := math.Sqrt(2 * pSignal)

	for i := range out {
		out[i] += rng.NormFloat64() * noiseScale
		out[i] += fx.DriftPct * amp * float64(i) / sampleRate
	}
	return out
}

// ============================================================================
// 3. 测试用例 (Test Cases)
// ============================================================================

type TestCase struct {
	Name     string
	Freq     float64
	SNR      float64
	Drift    float64
	Expected string // 期望占比最高的频段
}

func RunBenchmark(cfg *bandctl.Config) {
	rng := rand.New(rand.NewSource(1))

	testCases := []TestCase{
		{Name: "Delta clean", Freq: 2.0, SNR: 30, Expected: "Delta"},
		{Name: "Theta clean", Freq: 6.0, SNR: 30, Expected: "Theta"},
		{Name: "Alpha clean", Freq: 10.0, SNR: 30, Expected: "Alpha"},
		{Name: "Alpha noisy", Freq: 10.0, SNR: 3, Expected: "Alpha"},
		{Name: "Alpha drift", Freq: 10.0, SNR: 20, Drift: 0.2, Expected: "Alpha"},
		{Name: "Beta clean", Freq: 20.0, SNR: 30, Expected: "Beta"},
		{Name: "Beta noisy", Freq: 20.0, SNR: 0, Expected: "Beta"},
		{Name: "Gamma clean", Freq: 38.0, SNR: 30, Expected: "Gamma"},
	}

	n := cfg.WindowSize()
	duration := float64(n) / cfg.Acquisition.SampleRate

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tFREQ\tSNR\tWINNER\tFRACTION\tPEAK(Hz)\tTIME\tRESULT")

	passed := 0
	for _, tc := range testCases {
		clean := GenerateTone(ToneConfig{
			SampleRate: cfg.Acquisition.SampleRate,
			Frequency:  tc.Freq,
			Amplitude:  100,
			Offset:     512,
			Duration:   duration,
		})
		raw := ApplyEffects(clean, cfg.Acquisition.SampleRate, ChannelEffects{SNRdB: tc.SNR, DriftPct: tc.Drift}, rng)

		start := time.Now()
		frame := bandctl.BuildFrame(raw, cfg)
		elapsed := time.Since(start)

		winner, best := "", -1.0
		for _, b := range frame.Bands.Fractions {
			if b.Fraction > best {
				winner, best = b.Name, b.Fraction
			}
		}
		result := "FAIL"
		if winner == tc.Expected {
			result = "PASS"
			passed++
		}
		fmt.Fprintf(w, "%s\t%.1f\t%.0f dB\t%s\t%.3f\t%.2f\t%s\t%s\n",
			tc.Name, tc.Freq, tc.SNR, winner, best, frame.PeakFrequency, elapsed, result)
	}
	w.Flush()
	fmt.Printf("\n%d/%d cases passed (N=%d, fs=%.0f Hz)\n", passed, len(testCases), n, cfg.Acquisition.SampleRate)
}

func main() {
	cfg, err := bandctl.DefaultConfig().Normalize()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	RunBenchmark(cfg)
}
