package bandctl

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// AudioSource 把声卡输入当作传感器通道：按块平均降采样到目标采样率
type AudioSource struct {
	DeviceName string
	AudioRate  int     // 声卡采样率
	SampleRate float64 // 目标采样率 (fs)

	samples chan float64
}

// NewAudioSource 创建音频样本源
func NewAudioSource(deviceName string, audioRate int, sampleRate float64) *AudioSource {
	return &AudioSource{
		DeviceName: deviceName,
		AudioRate:  audioRate,
		SampleRate: sampleRate,
		samples:    make(chan float64, 1024),
	}
}

// Decimator 块平均降采样，可选在前面加一级抗混叠低通
type Decimator struct {
	factor int
	acc    float64
	n      int
	lp     *Lowpass
}

// NewDecimator factor = round(inRate / outRate)，至少为 1
func NewDecimator(inRate, outRate float64) *Decimator {
	f := int(math.Round(inRate / outRate))
	if f < 1 {
		f = 1
	}
	return &Decimator{factor: f}
}

// NewAntiAliasDecimator 先经过截止在 0.4*outRate 的 4 阶巴特沃斯低通
func NewAntiAliasDecimator(inRate, outRate float64) *Decimator {
	d := NewDecimator(inRate, outRate)
	if d.factor > 1 {
		d.lp = NewLowpass(4, inRate, 0.4*outRate)
	}
	return d
}

// Push 累积一个输入样本，凑满一块时输出平均值
func (d *Decimator) Push(v float64) (float64, bool) {
	if d.lp != nil {
		v = d.lp.Process(v)
	}
	d.acc += v
	d.n++
	if d.n < d.factor {
		return 0, false
	}
	out := d.acc / float64(d.n)
	d.acc, d.n = 0, 0
	return out, true
}

// Run 启动音频捕获，降采样后的样本只在本 goroutine 中写入
func (a *AudioSource) Run(ctx context.Context, in Ingestor) error {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to init malgo context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(a.AudioRate)
	deviceConfig.Alsa.NoMMap = 1

	if a.DeviceName != "" {
		infos, err := mctx.Devices(malgo.Capture)
		if err == nil {
			for _, info := range infos {
				if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(a.DeviceName)) {
					deviceConfig.Capture.DeviceID = info.ID.Pointer()
					break
				}
			}
		}
	}

	dec := NewAntiAliasDecimator(float64(a.AudioRate), a.SampleRate)
	onRecvFrames := func(_, pInputSamples []byte, framecount uint32) {
		if len(pInputSamples) == 0 {
			return
		}
		frames := unsafe.Slice((*float32)(unsafe.Pointer(&pInputSamples[0])), int(framecount))
		for _, s := range frames {
			if v, ok := dec.Push(float64(s)); ok {
				select {
				case a.samples <- v:
				default:
					// 消费跟不上时丢弃，不阻塞音频线程
				}
			}
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		return fmt.Errorf("failed to init device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case v := <-a.samples:
			in.Ingest(v)
		}
	}
}
