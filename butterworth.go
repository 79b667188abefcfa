package bandctl

import "math"

// biquad 二阶 IIR 节 (直接 II 型转置)
type biquad struct {
	a0, a1, a2, b1, b2 float64
	z1, z2             float64
}

func (f *biquad) process(in float64) float64 {
	out := in*f.a0 + f.z1
	f.z1 = in*f.a1 - out*f.b1 + f.z2
	f.z2 = in*f.a2 - out*f.b2
	return out
}

// Lowpass 偶数阶巴特沃斯低通，由 order/2 个二阶节级联而成。
// 用在降采样之前抑制混叠。
type Lowpass struct {
	sections []*biquad
}

// NewLowpass 奇数阶向上取偶，截止频率限制在 0.499*sampleRate 以下
func NewLowpass(order int, sampleRate, cutoff float64) *Lowpass {
	if order < 2 {
		order = 2
	}
	if order%2 != 0 {
		order++
	}
	if cutoff >= sampleRate*0.499 {
		cutoff = sampleRate * 0.499
	}

	// 双线性变换，先预畸变
	fs2 := 2.0 * sampleRate
	w := fs2 * math.Tan(math.Pi*cutoff/sampleRate)
	k := fs2 * fs2

	lp := &Lowpass{sections: make([]*biquad, order/2)}
	for i := range lp.sections {
		// 低 Q 的节放在前面
		pole := order/2 - 1 - i
		theta := math.Pi * (2*float64(pole) + 1) / (2 * float64(order))
		re := -w * math.Sin(theta)
		im := w * math.Cos(theta)
		mag2 := re*re + im*im

		norm := k - 2*sampleRate*2*re + mag2
		lp.sections[i] = &biquad{
			a0: w * w / norm,
			a1: 2 * w * w / norm,
			a2: w * w / norm,
			b1: (-2*k + 2*mag2) / norm,
			b2: (k + 2*sampleRate*2*re + mag2) / norm,
		}
	}
	return lp
}

// Process 处理一个样本
func (lp *Lowpass) Process(in float64) float64 {
	out := in
	for _, s := range lp.sections {
		out = s.process(out)
	}
	return out
}

// Reset 清空延迟线
func (lp *Lowpass) Reset() {
	for _, s := range lp.sections {
		s.z1, s.z2 = 0, 0
	}
}
