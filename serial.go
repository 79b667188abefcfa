package bandctl

import (
	"bufio"
	"context"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// SerialPort 定义串口操作接口，方便测试 Mock
type SerialPort interface {
	io.ReadWriteCloser
}

// Ingestor 接收读取到的样本
type Ingestor interface {
	Ingest(v float64)
	Discard(line string) // 无法解析的行
}

// SampleSource 样本来源。Run 阻塞直到 ctx 取消 (返回 nil) 或传输出错。
type SampleSource interface {
	Run(ctx context.Context, in Ingestor) error
}

// ParseSample 解析一行 ASCII 十进制数。空行或非数字返回 false，调用方跳过即可。
func ParseSample(line string) (float64, bool) {
	line = strings.TrimSpace(strings.ToValidUTF8(line, ""))
	if line == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(line, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// SerialLink 一条串口连接：逐行读取样本，回写单字节命令
type SerialLink struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration

	conn SerialPort
	// tarm/serial 读超时返回 0 字节 + io.EOF，此时 EOF 不代表连接结束
	eofIsTimeout bool
}

// NewSerialLink 创建新的串口连接 (尚未打开)
func NewSerialLink(port string, baudRate int, readTimeout time.Duration) *SerialLink {
	return &SerialLink{
		Port:        port,
		BaudRate:    baudRate,
		ReadTimeout: readTimeout,
	}
}

// NewSerialLinkFrom 包装一个已经打开的端口 (模拟器、测试)
func NewSerialLinkFrom(conn SerialPort) *SerialLink {
	return &SerialLink{conn: conn}
}

// Open 打开串口连接
func (l *SerialLink) Open() error {
	config := &serial.Config{
		Name:        l.Port,
		Baud:        l.BaudRate,
		ReadTimeout: l.ReadTimeout,
	}
	s, err := serial.OpenPort(config)
	if err != nil {
		return err
	}
	l.conn = s
	l.eofIsTimeout = l.ReadTimeout > 0
	// 很多开发板在打开串口时会复位
	time.Sleep(300 * time.Millisecond)
	return nil
}

// Close 关闭串口连接
func (l *SerialLink) Close() error {
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}

// Actuator 返回带写入超时的执行器
func (l *SerialLink) Actuator(timeout time.Duration) Actuator {
	if l.conn == nil {
		return nil
	}
	return NewBoundedActuator(l.conn, timeout)
}

// Run 逐行读取直到 ctx 取消或传输出错。
// 每次读超时都会检查一次 ctx，跨超时的半行数据会被保留。
func (l *SerialLink) Run(ctx context.Context, in Ingestor) error {
	if l.conn == nil {
		return ErrNotConnected
	}
	r := bufio.NewReader(l.conn)
	var pending strings.Builder

	for {
		if ctx.Err() != nil {
			return nil
		}

		chunk, err := r.ReadString('\n')
		pending.WriteString(chunk)

		if err == nil {
			line := pending.String()
			pending.Reset()
			if v, ok := ParseSample(line); ok {
				in.Ingest(v)
			} else if strings.TrimSpace(line) != "" {
				in.Discard(line)
			}
			continue
		}

		if ctx.Err() != nil {
			return nil
		}
		if l.isTimeout(err) {
			continue
		}
		return err
	}
}

func (l *SerialLink) isTimeout(err error) bool {
	if errors.Is(err, io.ErrNoProgress) {
		return true
	}
	return l.eofIsTimeout && errors.Is(err, io.EOF)
}
