package bandctl

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Direction 阈值比较方向
type Direction string

const (
	DirAbove Direction = ">="
	DirBelow Direction = "<="
)

// ControlMode 控制模式
type ControlMode string

const (
	ModeBand  ControlMode = "band"  // 频段功率占比 + 阈值
	ModeRange ControlMode = "range" // 最新样本是否落在 [Low, High] 内
)

const (
	MinSampleRate    = 10.0
	MinWindowSeconds = 0.5
	MinWindowSize    = 32
	MinBufferSize    = 200
)

var (
	ErrUnknownBand      = errors.New("unknown band")
	ErrUnknownDirection = errors.New("unknown direction")
	ErrUnknownMode      = errors.New("unknown control mode")
)

// Config 集中管理一次会话的全部参数。
// 经过 Normalize 之后视为不可变，修改时整体替换。
type Config struct {
	// --- 采集 ---
	Acquisition struct {
		SampleRate    float64       // 采样率 (Hz)，下限 10
		BufferSeconds float64       // 环形缓冲区时长 (秒)，决定容量
		Baud          int           // 串口波特率
		ReadTimeout   time.Duration // 串口读超时，同时也是停止信号的响应粒度
	}

	// --- 信号调理 ---
	Conditioning struct {
		RemoveDC   bool // 去直流
		SmoothN    int  // 滑动平均宽度 (>= 1)，1 表示不平滑
		ZScoreView bool // 显示通道是否做 z-score 归一化
	}

	// --- 频谱 ---
	Spectrum struct {
		WindowSeconds float64          // 分析窗口时长 (秒)，下限 0.5
		Bands         []BandDefinition // 频段定义，顺序即显示顺序
		Total         BandDefinition   // 归一化参考频段
	}

	// --- 控制 ---
	Control struct {
		Mode         ControlMode
		Enabled      bool
		TargetBand   string
		Threshold    float64
		Direction    Direction
		Period       time.Duration // 控制周期
		WriteTimeout time.Duration // 单字节写入的超时
	}

	// 区间模式参数
	Range struct {
		Low  float64
		High float64
	}

	// --- 显示 ---
	Display struct {
		Period     time.Duration // 刷新周期 (约 25Hz)
		HistoryLen int           // 频段占比历史长度 (折线视图)
	}
}

// DefaultBands 返回默认的 EEG 频段
func DefaultBands() []BandDefinition {
	return []BandDefinition{
		{Name: "Delta", Lo: 0.5, Hi: 4.0},
		{Name: "Theta", Lo: 4.0, Hi: 8.0},
		{Name: "Alpha", Lo: 8.0, Hi: 12.0},
		{Name: "Beta", Lo: 12.0, Hi: 30.0},
		{Name: "Gamma", Lo: 30.0, Hi: 45.0},
	}
}

// DefaultConfig 返回频段控制器的默认配置
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Acquisition.SampleRate = 100.0
	cfg.Acquisition.BufferSeconds = 8.0
	cfg.Acquisition.Baud = 115200
	cfg.Acquisition.ReadTimeout = time.Second

	cfg.Conditioning.RemoveDC = true
	cfg.Conditioning.SmoothN = 5
	cfg.Conditioning.ZScoreView = true

	cfg.Spectrum.WindowSeconds = 2.0
	cfg.Spectrum.Bands = DefaultBands()
	cfg.Spectrum.Total = TotalBand

	cfg.Control.Mode = ModeBand
	cfg.Control.Enabled = false
	cfg.Control.TargetBand = "Alpha"
	cfg.Control.Threshold = 0.30
	cfg.Control.Direction = DirAbove
	cfg.Control.Period = 120 * time.Millisecond
	cfg.Control.WriteTimeout = 200 * time.Millisecond

	cfg.Range.Low = -50.0
	cfg.Range.High = 50.0

	cfg.Display.Period = 40 * time.Millisecond
	cfg.Display.HistoryLen = 200

	return cfg
}

// DefaultRangeConfig 返回区间控制器的默认配置 (控制周期 80ms)
func DefaultRangeConfig() *Config {
	cfg := DefaultConfig()
	cfg.Control.Mode = ModeRange
	cfg.Control.Period = 80 * time.Millisecond
	return cfg
}

// Normalize 在边界处校验并修正配置，返回一份独立的副本。
// 零值回落到默认值，低于下限的取下限，颠倒的区间自动交换。
func (c Config) Normalize() (*Config, error) {
	def := DefaultConfig()
	n := c

	n.Acquisition.SampleRate = floorOr(c.Acquisition.SampleRate, def.Acquisition.SampleRate, MinSampleRate)
	n.Spectrum.WindowSeconds = floorOr(c.Spectrum.WindowSeconds, def.Spectrum.WindowSeconds, MinWindowSeconds)
	if !(n.Acquisition.BufferSeconds > 0) {
		n.Acquisition.BufferSeconds = def.Acquisition.BufferSeconds
	}
	if n.Acquisition.Baud <= 0 {
		n.Acquisition.Baud = def.Acquisition.Baud
	}
	if n.Acquisition.ReadTimeout <= 0 {
		n.Acquisition.ReadTimeout = def.Acquisition.ReadTimeout
	}
	if n.Conditioning.SmoothN < 1 {
		n.Conditioning.SmoothN = 1
	}

	// 深拷贝，避免与调用方共享切片
	bands := c.Spectrum.Bands
	if len(bands) == 0 {
		bands = def.Spectrum.Bands
	}
	n.Spectrum.Bands = make([]BandDefinition, len(bands))
	for i, b := range bands {
		n.Spectrum.Bands[i] = b.Ordered()
	}
	if n.Spectrum.Total == (BandDefinition{}) {
		n.Spectrum.Total = TotalBand
	}
	n.Spectrum.Total = n.Spectrum.Total.Ordered()

	switch n.Control.Mode {
	case "":
		n.Control.Mode = ModeBand
	case ModeBand, ModeRange:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, n.Control.Mode)
	}
	switch n.Control.Direction {
	case "":
		n.Control.Direction = DirAbove
	case DirAbove, DirBelow:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDirection, n.Control.Direction)
	}
	if n.Control.TargetBand == "" {
		n.Control.TargetBand = def.Control.TargetBand
	}
	if n.Control.Mode == ModeBand {
		if _, ok := n.Band(n.Control.TargetBand); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBand, n.Control.TargetBand)
		}
	}
	if n.Control.Period <= 0 {
		n.Control.Period = def.Control.Period
	}
	if n.Control.WriteTimeout <= 0 {
		n.Control.WriteTimeout = def.Control.WriteTimeout
	}

	if n.Range.Low > n.Range.High {
		n.Range.Low, n.Range.High = n.Range.High, n.Range.Low
	}

	if n.Display.Period <= 0 {
		n.Display.Period = def.Display.Period
	}
	if n.Display.HistoryLen <= 0 {
		n.Display.HistoryLen = def.Display.HistoryLen
	}

	return &n, nil
}

// Band 按名称查找频段
func (c *Config) Band(name string) (BandDefinition, bool) {
	for _, b := range c.Spectrum.Bands {
		if b.Name == name {
			return b.Ordered(), true
		}
	}
	return BandDefinition{}, false
}

// WindowSize 分析窗口的样本数 N = max(32, round(fs * windowSeconds))
func (c *Config) WindowSize() int {
	n := int(math.Round(c.Acquisition.SampleRate * c.Spectrum.WindowSeconds))
	if n < MinWindowSize {
		n = MinWindowSize
	}
	return n
}

// BufferCapacity 环形缓冲区容量 max(200, round(fs * bufferSeconds))
func (c *Config) BufferCapacity() int {
	return StreamCapacity(c.Acquisition.SampleRate, c.Acquisition.BufferSeconds)
}

func floorOr(v, def, floor float64) float64 {
	if v == 0 || math.IsNaN(v) {
		v = def
	}
	if v < floor {
		v = floor
	}
	return v
}
