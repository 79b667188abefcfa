package bandctl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SessionOptions 会话的可选依赖，零值可用
type SessionOptions struct {
	Logger   *slog.Logger
	Metrics  *Metrics
	Sink     FrameSink
	Debugger TickDebugger
	Closer   io.Closer      // 会话结束时关闭，通常是串口
	Recorder SampleRecorder // 录制原始样本
}

// Session 管理一次连接的生命周期：
// 一个读取 goroutine 是缓冲区唯一的写入方，
// 显示和控制两个周期任务各自拷贝快照后独立计算。
type Session struct {
	ID string

	cfg      atomic.Pointer[Config]
	stream   *SampleStream
	source   SampleSource
	engine   *ControlEngine
	actuator bool
	history  *bandHistory

	log      *slog.Logger
	metrics  *Metrics
	sink     FrameSink
	debugger TickDebugger
	closer   io.Closer
	recorder SampleRecorder

	connected atomic.Bool
	cancelMu  sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
	startOnce sync.Once

	errMu sync.Mutex
	err   error
}

// NewSession 创建会话。act 为 nil 时控制周期始终是空操作。
func NewSession(cfg *Config, src SampleSource, act Actuator, opts SessionOptions) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	n, err := cfg.Normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Session{
		ID:       uuid.NewString(),
		stream:   NewSampleStream(n.BufferCapacity()),
		source:   src,
		engine:   NewControlEngine(act),
		actuator: act != nil,
		history:  newBandHistory(n.Display.HistoryLen),
		metrics:  opts.Metrics,
		sink:     opts.Sink,
		debugger: opts.Debugger,
		closer:   opts.Closer,
		recorder: opts.Recorder,
		done:     make(chan struct{}),
	}
	s.cfg.Store(n)

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s.log = log.With("session", s.ID)
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.sink == nil {
		s.sink = MultiSink(nil)
	}
	if s.debugger == nil {
		s.debugger = &NoOpDebugger{}
	}

	if n.WindowSize() > s.stream.Cap() {
		s.log.Warn("analysis window larger than buffer, ticks will never run",
			"window", n.WindowSize(), "capacity", s.stream.Cap())
	}
	return s, nil
}

// Start 启动读取与两个周期任务
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		s.cancelMu.Lock()
		s.cancel = cancel
		s.cancelMu.Unlock()
		s.connected.Store(true)

		cfg := s.cfg.Load()
		s.log.Info("session started",
			"mode", cfg.Control.Mode,
			"fs", cfg.Acquisition.SampleRate,
			"window", cfg.WindowSize(),
			"capacity", s.stream.Cap())

		s.wg.Add(3)
		go s.readLoop(ctx)
		go s.tickLoop(ctx, func(c *Config) time.Duration { return c.Display.Period }, s.displayTick)
		go s.tickLoop(ctx, func(c *Config) time.Duration { return c.Control.Period }, s.controlTick)

		go func() {
			s.wg.Wait()
			s.shutdown()
		}()
	})
}

// Stop 请求停止并等待全部任务退出，可以重复调用。
// 读取任务在下一次读超时边界退出。Start 之前调用时会话直接结束，之后的 Start 不再生效。
func (s *Session) Stop() {
	s.startOnce.Do(s.shutdown)
	s.stopRunning()
	<-s.done
}

func (s *Session) stopRunning() {
	s.cancelMu.Lock()
	cancel := s.cancel
	s.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// shutdown 只执行一次：关闭传输并关闭 done
func (s *Session) shutdown() {
	s.connected.Store(false)
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			s.log.Warn("close transport", "err", err)
		}
	}
	s.log.Info("session stopped")
	close(s.done)
}

// Done 会话结束时关闭
func (s *Session) Done() <-chan struct{} { return s.done }

// Err 导致会话断开的错误；正常停止时为 nil
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Connected 是否处于连接状态
func (s *Session) Connected() bool { return s.connected.Load() }

// Config 当前配置，只读
func (s *Session) Config() *Config { return s.cfg.Load() }

// SetSink 替换显示帧的输出，须在 Start 之前调用
func (s *Session) SetSink(sink FrameSink) {
	if sink != nil {
		s.sink = sink
	}
}

// SetConfig 整体替换配置，下一个周期生效。缓冲区容量在启动时已经固定。
func (s *Session) SetConfig(cfg Config) error {
	n, err := cfg.Normalize()
	if err != nil {
		return err
	}
	s.cfg.Store(n)
	return nil
}

func (s *Session) fail(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()

	s.connected.Store(false)
	s.log.Error("session disconnected", "err", err)
	s.stopRunning()
}

// sessionIngest 读取任务写入缓冲区的唯一入口
type sessionIngest struct{ s *Session }

func (i sessionIngest) Ingest(v float64) {
	i.s.stream.Append(v)
	i.s.metrics.SamplesIngested.Inc()
	if i.s.recorder != nil {
		i.s.recorder.Record(v)
	}
}

func (i sessionIngest) Discard(line string) {
	i.s.metrics.LinesDiscarded.Inc()
	i.s.log.Debug("discarded line", "line", line)
}

func (s *Session) readLoop(ctx context.Context) {
	defer s.wg.Done()

	err := s.source.Run(ctx, sessionIngest{s})
	if err != nil && ctx.Err() == nil {
		s.fail(fmt.Errorf("reader: %w", err))
		return
	}
	s.stopRunning()
}

func (s *Session) tickLoop(ctx context.Context, period func(*Config) time.Duration, tick func(context.Context, *Config)) {
	defer s.wg.Done()

	cur := period(s.cfg.Load())
	ticker := time.NewTicker(cur)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cfg := s.cfg.Load()
			tick(ctx, cfg)
			if p := period(cfg); p != cur {
				cur = p
				ticker.Reset(p)
			}
		}
	}
}

func (s *Session) displayTick(_ context.Context, cfg *Config) {
	s.metrics.BufferFill.Set(float64(s.stream.Len()))

	raw, ok := s.stream.Snapshot(cfg.WindowSize())
	if !ok {
		s.metrics.Ticks.WithLabelValues("display", "no_data").Inc()
		return
	}
	f := BuildFrame(raw, cfg)
	f.Session = s.ID
	s.history.resize(cfg.Display.HistoryLen)
	f.History = s.history.push(f.Bands)

	s.metrics.observeFrame(f)
	s.metrics.Ticks.WithLabelValues("display", "ok").Inc()
	s.sink.Publish(f)
}

func (s *Session) controlTick(ctx context.Context, cfg *Config) {
	if !cfg.Control.Enabled || !s.actuator || !s.connected.Load() {
		return
	}

	raw, ok := s.stream.Snapshot(cfg.WindowSize())
	if !ok {
		s.metrics.Ticks.WithLabelValues("control", "no_data").Inc()
		return
	}
	d, ok := EvaluateControl(raw, cfg)
	if !ok {
		s.metrics.Ticks.WithLabelValues("control", "no_data").Inc()
		return
	}

	emitted, err := s.engine.Apply(ctx, d.Command)
	s.debugger.Record(d, emitted)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.metrics.ActuationErrors.Inc()
		if IsTransientWriteError(err) {
			s.log.Warn("actuation write deferred", "command", d.Command, "err", err)
			return
		}
		s.fail(fmt.Errorf("actuation: %w", err))
		return
	}

	s.metrics.Ticks.WithLabelValues("control", "ok").Inc()
	if emitted {
		s.metrics.Commands.WithLabelValues(d.Command.String()).Inc()
		s.log.Info("actuation",
			"command", d.Command.String(),
			"mode", d.Mode,
			"band", d.Band,
			"value", d.Value)
	}
}
