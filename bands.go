package bandctl

// 总功率小于此值时占比记为 0
const negligiblePower = 1e-12

// BandDefinition 频段 [Lo, Hi] (Hz)，两端都包含
type BandDefinition struct {
	Name string  `json:"name"`
	Lo   float64 `json:"lo"`
	Hi   float64 `json:"hi"`
}

// TotalBand 归一化参考频段
var TotalBand = BandDefinition{Name: "Total", Lo: 1.0, Hi: 45.0}

// Ordered 保证 Lo <= Hi
func (b BandDefinition) Ordered() BandDefinition {
	if b.Lo > b.Hi {
		b.Lo, b.Hi = b.Hi, b.Lo
	}
	return b
}

// BandPowerFraction 频段功率 / 总功率
type BandPowerFraction struct {
	Name     string  `json:"name"`
	Fraction float64 `json:"fraction"`
}

// BandPowers 一次提取的结果。
// 频段可以重叠，各占比之和不保证为 1。
type BandPowers struct {
	Fractions []BandPowerFraction `json:"fractions"`
	Total     float64             `json:"total"`
}

// Fraction 按名称取占比
func (bp BandPowers) Fraction(name string) (float64, bool) {
	for _, f := range bp.Fractions {
		if f.Name == name {
			return f.Fraction, true
		}
	}
	return 0, false
}

// BandPower 累加 Lo <= f <= Hi 的所有频点功率
func BandPower(psd *PSDResult, band BandDefinition) float64 {
	if psd == nil {
		return 0
	}
	band = band.Ordered()
	sum := 0.0
	for k, f := range psd.Frequencies {
		if f >= band.Lo && f <= band.Hi {
			sum += psd.Power[k]
		}
	}
	return sum
}

// BandFraction 单个频段相对于参考频段的占比
func BandFraction(psd *PSDResult, band, total BandDefinition) float64 {
	return fraction(BandPower(psd, band), BandPower(psd, total))
}

// ExtractBandPowers 计算每个频段的占比
func ExtractBandPowers(psd *PSDResult, bands []BandDefinition, total BandDefinition) BandPowers {
	pTotal := BandPower(psd, total)
	out := BandPowers{
		Fractions: make([]BandPowerFraction, len(bands)),
		Total:     pTotal,
	}
	for i, b := range bands {
		out.Fractions[i] = BandPowerFraction{
			Name:     b.Name,
			Fraction: fraction(BandPower(psd, b), pTotal),
		}
	}
	return out
}

func fraction(p, total float64) float64 {
	if total < negligiblePower {
		return 0
	}
	return p / total
}
