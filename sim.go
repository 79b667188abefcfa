package bandctl

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"
)

// SimRange 模拟信号的限幅范围 [-SimRange, +SimRange]
const SimRange = 1023.0

// SimConfig 模拟生物传感器参数
type SimConfig struct {
	SampleRate   float64 // 每秒输出的行数
	Amplitude    float64 // 正弦幅度 (±)
	Frequency    float64 // 正弦频率 (Hz)
	Noise        float64 // 均匀噪声幅度 [-Noise, +Noise]
	Offset       float64 // 直流偏置
	GarbageEvery int     // 每隔多少行插入一行乱码，0 表示不插入
	Limit        int     // 最多输出的样本数，0 表示无限
	Realtime     bool    // 是否按采样率节奏输出
	Seed         int64
}

// SimPort 实现 SerialPort：读出 A·sin(2πft)+噪声 的文本行，写入的命令字节被记录下来
type SimPort struct {
	cfg SimConfig
	rng *rand.Rand

	t        float64
	dt       float64
	produced int
	pending  []byte
	next     time.Time

	mu      sync.Mutex
	written bytes.Buffer
	closed  bool
}

// NewSimPort 创建模拟端口
func NewSimPort(cfg SimConfig) *SimPort {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 100
	}
	return &SimPort{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		dt:  1.0 / cfg.SampleRate,
	}
}

// Sample 生成下一个样本
func (p *SimPort) Sample() float64 {
	a := math.Max(0, math.Min(SimRange, p.cfg.Amplitude))
	s := a*math.Sin(2*math.Pi*p.cfg.Frequency*p.t) + p.cfg.Offset
	if p.cfg.Noise > 0 {
		s += (p.rng.Float64()*2 - 1) * p.cfg.Noise
	}
	p.t += p.dt
	return math.Max(-SimRange, math.Min(SimRange, s))
}

func (p *SimPort) Read(b []byte) (int, error) {
	if p.isClosed() {
		return 0, io.ErrClosedPipe
	}
	if len(p.pending) == 0 {
		if p.cfg.Limit > 0 && p.produced >= p.cfg.Limit {
			return 0, io.EOF
		}
		if p.cfg.Realtime {
			p.pace()
		}
		p.produced++
		if p.cfg.GarbageEvery > 0 && p.produced%p.cfg.GarbageEvery == 0 {
			p.pending = append(p.pending, "#ERR\n"...)
		}
		p.pending = append(p.pending, fmt.Sprintf("%.3f\n", p.Sample())...)
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *SimPort) pace() {
	now := time.Now()
	if p.next.IsZero() {
		p.next = now
	}
	if d := p.next.Sub(now); d > 0 {
		time.Sleep(d)
	}
	p.next = p.next.Add(time.Duration(p.dt * float64(time.Second)))
}

func (p *SimPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	return p.written.Write(b)
}

// Close 关闭端口
func (p *SimPort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// Written 返回目前为止写入的所有命令字节
func (p *SimPort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.written.Bytes()...)
}

func (p *SimPort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
