package Filters

import "math"

// MinStdDev z-score 归一化时标准差的下限，防止静默信号除零
const MinStdDev = 1e-9

// Conditioner 信号调理参数
type Conditioner struct {
	RemoveDC bool // 去直流 (减去窗口均值)
	SmoothN  int  // 因果滑动平均宽度，<= 1 表示不平滑
	ZScore   bool // 显示通道是否做 z-score
}

// Conditioned 调理结果。
// Analysis 供频谱与控制使用；Display 仅供显示，从不回流到分析路径。
type Conditioned struct {
	Analysis []float64
	Display  []float64
}

// Apply 对原始窗口做调理，不修改输入
func (c Conditioner) Apply(raw []float64) Conditioned {
	x := raw
	if c.RemoveDC {
		x = RemoveDC(x)
	}
	x = MovingAverage(x, c.SmoothN)

	var vis []float64
	if c.ZScore {
		vis = ZScore(x)
	} else {
		vis = make([]float64, len(x))
		copy(vis, x)
	}
	return Conditioned{Analysis: x, Display: vis}
}

// RemoveDC 减去均值
func RemoveDC(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	m := Mean(x)
	for i, v := range x {
		out[i] = v - m
	}
	return out
}

// MovingAverage 因果滑动平均，使用累加和，O(N)。
// 前 n-1 个输出无法计算，用第一个有效平均值填平，保证输出长度不变。
func MovingAverage(x []float64, n int) []float64 {
	out := make([]float64, len(x))
	if n <= 1 || len(x) < n {
		copy(out, x)
		return out
	}

	acc := 0.0
	for _, v := range x[:n] {
		acc += v
	}
	inv := 1.0 / float64(n)
	out[n-1] = acc * inv
	for i := n; i < len(x); i++ {
		acc += x[i] - x[i-n]
		out[i] = acc * inv
	}

	// 头部填平
	for i := 0; i < n-1; i++ {
		out[i] = out[n-1]
	}
	return out
}

// ZScore (x - mean) / std，std 取总体标准差并设下限 MinStdDev
func ZScore(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	m := Mean(x)
	sd := StdDev(x, m)
	if sd < MinStdDev {
		sd = MinStdDev
	}
	for i, v := range x {
		out[i] = (v - m) / sd
	}
	return out
}

// Mean 算术平均
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// StdDev 总体标准差 (除以 N)
func StdDev(x []float64, mean float64) float64 {
	if len(x) == 0 {
		return 0
	}
	ss := 0.0
	for _, v := range x {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(x)))
}
