package bandctl

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"
)

const wavHeaderSize = 44

var ErrInvalidWAV = errors.New("invalid wav file")

// SampleRecorder 接收读取任务写入缓冲区的每一个样本
type SampleRecorder interface {
	Record(v float64)
}

// WAVRecorder 把原始样本录成 16-bit 单声道 PCM，采样率为 fs。
// FullScale 对应 int16 满幅，超出部分削顶。
type WAVRecorder struct {
	mu         sync.Mutex
	file       *os.File
	w          *bufio.Writer
	sampleRate int
	fullScale  float64
	dataSize   int
	err        error
}

// NewWAVRecorder 先写一个占位头，Close 时回填长度
func NewWAVRecorder(path string, sampleRate, fullScale float64) (*WAVRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(make([]byte, wavHeaderSize)); err != nil {
		f.Close()
		return nil, err
	}
	if fullScale <= 0 {
		fullScale = SimRange
	}
	return &WAVRecorder{
		file:       f,
		w:          bufio.NewWriter(f),
		sampleRate: int(math.Round(sampleRate)),
		fullScale:  fullScale,
	}, nil
}

// Record 写入一个样本。第一次写入失败后停止录制，错误由 Close 返回。
func (r *WAVRecorder) Record(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	s := math.Max(-1, math.Min(1, v/r.fullScale))
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(int16(s*32767)))
	if _, err := r.w.Write(b[:]); err != nil {
		r.err = err
		return
	}
	r.dataSize += 2
}

// Close 回写 WAV 头并关闭文件
func (r *WAVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return r.err
	}
	f := r.file
	r.file = nil

	if err := r.w.Flush(); err != nil && r.err == nil {
		r.err = err
	}
	if _, err := f.WriteAt(wavHeader(r.sampleRate, r.dataSize), 0); err != nil && r.err == nil {
		r.err = err
	}
	if err := f.Close(); err != nil && r.err == nil {
		r.err = err
	}
	return r.err
}

func wavHeader(sampleRate, dataSize int) []byte {
	h := make([]byte, wavHeaderSize)
	copy(h[0:], "RIFF")
	binary.LittleEndian.PutUint32(h[4:], uint32(36+dataSize))
	copy(h[8:], "WAVE")

	copy(h[12:], "fmt ")
	binary.LittleEndian.PutUint32(h[16:], 16)
	binary.LittleEndian.PutUint16(h[20:], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:], 1) // mono
	binary.LittleEndian.PutUint32(h[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(h[32:], 2)
	binary.LittleEndian.PutUint16(h[34:], 16)

	copy(h[36:], "data")
	binary.LittleEndian.PutUint32(h[40:], uint32(dataSize))
	return h
}

// wavFormat 解析出的 fmt 块
type wavFormat struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	DataSize      int64
}

// readWAVHeader 遍历 RIFF 块直到 data，返回时读位置在 data 起点
func readWAVHeader(r io.ReadSeeker) (wavFormat, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return wavFormat{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return wavFormat{}, ErrInvalidWAV
	}

	var format wavFormat
	foundFmt := false
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return wavFormat{}, fmt.Errorf("%w: missing data chunk", ErrInvalidWAV)
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))
		pad := size % 2

		switch id {
		case "fmt ":
			if size < 16 {
				return wavFormat{}, fmt.Errorf("%w: fmt chunk too small", ErrInvalidWAV)
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return wavFormat{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
			}
			format.Channels = int(binary.LittleEndian.Uint16(data[2:4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(data[4:8]))
			format.BitsPerSample = int(binary.LittleEndian.Uint16(data[14:16]))
			foundFmt = true
			if _, err := r.Seek(pad, io.SeekCurrent); err != nil {
				return wavFormat{}, err
			}
		case "data":
			if !foundFmt {
				return wavFormat{}, fmt.Errorf("%w: data before fmt", ErrInvalidWAV)
			}
			if format.BitsPerSample != 16 || format.Channels < 1 {
				return wavFormat{}, fmt.Errorf("%w: only 16-bit PCM supported, got %d-bit x%d",
					ErrInvalidWAV, format.BitsPerSample, format.Channels)
			}
			format.DataSize = size
			return format, nil
		default:
			if _, err := r.Seek(size+pad, io.SeekCurrent); err != nil {
				return wavFormat{}, err
			}
		}
	}
}

// WAVSource 回放录下的 WAV (第一声道)，必要时降采样到 SampleRate。
// 文件读完时 Run 返回 nil，会话正常结束。
type WAVSource struct {
	Path       string
	SampleRate float64
	FullScale  float64 // 满幅对应的样本值
	Realtime   bool
}

// NewWAVSource 创建回放源，满幅默认 SimRange
func NewWAVSource(path string, sampleRate float64, realtime bool) *WAVSource {
	return &WAVSource{Path: path, SampleRate: sampleRate, FullScale: SimRange, Realtime: realtime}
}

func (s *WAVSource) Run(ctx context.Context, in Ingestor) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	format, err := readWAVHeader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", s.Path, err)
	}

	dec := NewAntiAliasDecimator(float64(format.SampleRate), s.SampleRate)
	r := bufio.NewReader(io.LimitReader(f, format.DataSize))
	frame := make([]byte, 2*format.Channels)

	period := time.Duration(float64(time.Second) / s.SampleRate)
	next := time.Now()

	for i := 0; ; i++ {
		if i%64 == 0 && ctx.Err() != nil {
			return nil
		}
		if _, err := io.ReadFull(r, frame); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		v := float64(int16(binary.LittleEndian.Uint16(frame[0:2]))) / 32768 * s.FullScale
		out, ok := dec.Push(v)
		if !ok {
			continue
		}
		if s.Realtime {
			next = next.Add(period)
			if d := time.Until(next); d > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(d):
				}
			}
		}
		in.Ingest(out)
	}
}
