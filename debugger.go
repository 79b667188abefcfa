package bandctl

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// TickDebugger 记录每一次控制判定
// 会话只依赖这个接口，不依赖具体的文件操作
type TickDebugger interface {
	Record(d Decision, emitted bool)
	Close()
}

// CsvTickDebugger 是 TickDebugger 的 CSV 实现
type CsvTickDebugger struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// NewCsvTickDebugger 创建一个新的 CSV 调试器
func NewCsvTickDebugger(filename string) (*CsvTickDebugger, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	w := bufio.NewWriter(f)
	// 写入表头
	if _, err := w.WriteString("Mode,Band,Value,Threshold,Low,High,Desired,Emitted\n"); err != nil {
		f.Close()
		return nil, err
	}

	return &CsvTickDebugger{
		file:   f,
		writer: w,
	}, nil
}

// Record 记录一次判定
func (d *CsvTickDebugger) Record(dec Decision, emitted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e := 0
	if emitted {
		e = 1
	}
	fmt.Fprintf(d.writer, "%s,%s,%f,%f,%f,%f,%s,%d\n",
		dec.Mode, dec.Band, dec.Value, dec.Threshold, dec.Low, dec.High, dec.Command, e)
}

// Close 关闭文件并刷新缓冲区
func (d *CsvTickDebugger) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.writer != nil {
		d.writer.Flush()
	}
	if d.file != nil {
		d.file.Close()
	}
}

// NoOpDebugger 是一个空实现，不记录数据时使用
type NoOpDebugger struct{}

func (d *NoOpDebugger) Record(Decision, bool) {}
func (d *NoOpDebugger) Close()                {}
