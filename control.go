package bandctl

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrNotConnected = errors.New("connection not open")
	ErrWriteTimeout = errors.New("actuation write timed out")
	ErrWriteBusy    = errors.New("previous actuation write still in flight")
)

// Command 执行器命令
type Command int

const (
	CommandUnset Command = iota // 初始状态，保证第一次判定一定发送
	CommandOff
	CommandOn
)

// Byte 线上的单字节编码
func (c Command) Byte() byte {
	if c == CommandOn {
		return '1'
	}
	return '0'
}

func (c Command) String() string {
	switch c {
	case CommandOn:
		return "ON"
	case CommandOff:
		return "OFF"
	default:
		return "UNSET"
	}
}

func commandFor(cond bool) Command {
	if cond {
		return CommandOn
	}
	return CommandOff
}

// DecideThreshold 频段模式：frac 与阈值比较
func DecideThreshold(frac, threshold float64, dir Direction) Command {
	if dir == DirBelow {
		return commandFor(frac <= threshold)
	}
	return commandFor(frac >= threshold)
}

// DecideRange 区间模式：value 是否落在 [low, high]
func DecideRange(value, low, high float64) Command {
	if low > high {
		low, high = high, low
	}
	return commandFor(value >= low && value <= high)
}

// Actuator 执行器接口 (通常是串口回写)
type Actuator interface {
	Send(ctx context.Context, cmd Command) error
}

// ControlEngine 边沿触发：只有期望状态变化时才发送命令。
// lastSent 只在发送成功后更新。
type ControlEngine struct {
	mu       sync.Mutex
	lastSent Command
	sink     Actuator
}

// NewControlEngine 创建控制引擎
func NewControlEngine(sink Actuator) *ControlEngine {
	return &ControlEngine{sink: sink, lastSent: CommandUnset}
}

// Apply 期望状态与上次发送的不同则发送。返回是否发送。
func (e *ControlEngine) Apply(ctx context.Context, desired Command) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if desired == CommandUnset || desired == e.lastSent {
		return false, nil
	}
	if e.sink == nil {
		return false, ErrNotConnected
	}
	if err := e.sink.Send(ctx, desired); err != nil {
		return false, err
	}
	e.lastSent = desired
	return true, nil
}

// BoundedActuator 把单字节写入放到独立 goroutine 中，并限定等待时间，
// 慢速的写入不会拖住调用方。同一时刻最多一个写入在途。
type BoundedActuator struct {
	w       io.Writer
	timeout time.Duration
	busy    atomic.Bool
}

// NewBoundedActuator 创建执行器
func NewBoundedActuator(w io.Writer, timeout time.Duration) *BoundedActuator {
	return &BoundedActuator{w: w, timeout: timeout}
}

// Send 写入 '1' 或 '0'
func (a *BoundedActuator) Send(ctx context.Context, cmd Command) error {
	if a.w == nil {
		return ErrNotConnected
	}
	if !a.busy.CompareAndSwap(false, true) {
		return ErrWriteBusy
	}

	done := make(chan error, 1)
	go func() {
		defer a.busy.Store(false)
		_, err := a.w.Write([]byte{cmd.Byte()})
		done <- err
	}()

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrWriteTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsTransientWriteError 超时或忙碌，下一次控制周期会重试
func IsTransientWriteError(err error) bool {
	return errors.Is(err, ErrWriteTimeout) || errors.Is(err, ErrWriteBusy)
}
