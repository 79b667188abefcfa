package bandctl

import (
	"bandctl/Filters"
)

// Decision 一次控制判定
type Decision struct {
	Mode      ControlMode
	Band      string  // 频段模式下的目标频段
	Value     float64 // 频段占比，或区间模式下的最新样本
	Threshold float64 // 频段模式的阈值
	Low, High float64 // 区间模式的上下限
	Command   Command
}

// Spectrum 一个窗口的频谱分析结果
type Spectrum struct {
	PSD   *PSDResult
	Bands BandPowers
}

// Conditioner 根据配置构造调理器
func (c *Config) Conditioner() Filters.Conditioner {
	return Filters.Conditioner{
		RemoveDC: c.Conditioning.RemoveDC,
		SmoothN:  c.Conditioning.SmoothN,
		ZScore:   c.Conditioning.ZScoreView,
	}
}

// Condition 对原始窗口做去直流与平滑
func Condition(raw []float64, cfg *Config) Filters.Conditioned {
	return cfg.Conditioner().Apply(raw)
}

// AnalyzeSpectrum 调理后的窗口 -> PSD -> 频段占比
func AnalyzeSpectrum(conditioned []float64, cfg *Config) (*Spectrum, bool) {
	psd, ok := ComputePSD(conditioned, cfg.Acquisition.SampleRate)
	if !ok {
		return nil, false
	}
	return &Spectrum{
		PSD:   psd,
		Bands: ExtractBandPowers(psd, cfg.Spectrum.Bands, cfg.Spectrum.Total),
	}, true
}

// EvaluateControl 对一个快照执行完整的判定流程。
// 数据不足 (窗口太短、PSD 不可用) 时返回 false。
func EvaluateControl(raw []float64, cfg *Config) (Decision, bool) {
	if len(raw) == 0 {
		return Decision{}, false
	}
	cond := Condition(raw, cfg)

	switch cfg.Control.Mode {
	case ModeRange:
		v := cond.Analysis[len(cond.Analysis)-1]
		low, high := cfg.Range.Low, cfg.Range.High
		if low > high {
			low, high = high, low
		}
		return Decision{
			Mode:    ModeRange,
			Value:   v,
			Low:     low,
			High:    high,
			Command: DecideRange(v, low, high),
		}, true

	default:
		band, ok := cfg.Band(cfg.Control.TargetBand)
		if !ok {
			return Decision{}, false
		}
		psd, ok := ComputePSD(cond.Analysis, cfg.Acquisition.SampleRate)
		if !ok {
			return Decision{}, false
		}
		frac := BandFraction(psd, band, cfg.Spectrum.Total)
		return Decision{
			Mode:      ModeBand,
			Band:      band.Name,
			Value:     frac,
			Threshold: cfg.Control.Threshold,
			Command:   DecideThreshold(frac, cfg.Control.Threshold, cfg.Control.Direction),
		}, true
	}
}
