package bandctl

import (
	"math"
	"sync"
)

// SampleStream 固定容量的环形缓冲区，保存最近的原始样本。
// 单写多读：读取方总是拷贝出快照，不在共享存储上原地迭代。
type SampleStream struct {
	mu    sync.RWMutex
	data  []float64
	head  int // 下一个写入位置
	count int
}

// StreamCapacity 根据采样率和缓冲时长计算容量，最少 200
func StreamCapacity(sampleRate, bufferSeconds float64) int {
	n := int(math.Round(sampleRate * bufferSeconds))
	if n < MinBufferSize {
		n = MinBufferSize
	}
	return n
}

// NewSampleStream 创建指定容量的缓冲区
func NewSampleStream(capacity int) *SampleStream {
	if capacity < 1 {
		capacity = 1
	}
	return &SampleStream{data: make([]float64, capacity)}
}

// Append 追加一个样本，满时覆盖最旧的样本
func (s *SampleStream) Append(v float64) {
	s.mu.Lock()
	s.data[s.head] = v
	s.head = (s.head + 1) % len(s.data)
	if s.count < len(s.data) {
		s.count++
	}
	s.mu.Unlock()
}

// Snapshot 按时间顺序拷贝最近 n 个样本。
// 样本不足 n 个时返回 false。
func (s *SampleStream) Snapshot(n int) ([]float64, bool) {
	if n < 1 {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.count < n {
		return nil, false
	}
	out := make([]float64, n)
	start := (s.head - n + len(s.data)) % len(s.data)
	if start+n <= len(s.data) {
		copy(out, s.data[start:start+n])
	} else {
		k := copy(out, s.data[start:])
		copy(out[k:], s.data[:n-k])
	}
	return out, true
}

// Len 当前样本数
func (s *SampleStream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Cap 容量
func (s *SampleStream) Cap() int {
	return len(s.data)
}
