package main

import (
	"bandctl"
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

func main() {
	// 1. 解析命令行参数
	portName := flag.String("port", "/dev/ttyACM0", "Serial port of the sensor")
	baud := flag.Int("baud", 115200, "Serial baud rate")
	mode := flag.String("mode", "band", "Control mode: band | range")
	fs := flag.Float64("fs", 100, "Sampling rate (Hz)")
	winSec := flag.Float64("window", 2.0, "FFT window (s)")
	bufSec := flag.Float64("buffer", 8.0, "Ring buffer length (s)")
	smooth := flag.Int("smooth", 5, "Moving average width (1 = off)")
	noDC := flag.Bool("keep-dc", false, "Do not remove DC")
	noZ := flag.Bool("raw-view", false, "Disable z-score on the display branch")
	band := flag.String("band", "Alpha", "Control band")
	thr := flag.Float64("threshold", 0.30, "Band fraction threshold")
	dir := flag.String("dir", ">=", "Threshold direction: >= | <=")
	low := flag.Float64("low", -50, "Range mode lower bound")
	high := flag.Float64("high", 50, "Range mode upper bound")
	enable := flag.Bool("enable", false, "Enable control (send 1/0)")

	sim := flag.Bool("sim", false, "Use the simulated biosensor instead of a serial port")
	simFreq := flag.Float64("sim-freq", 10, "Simulated tone frequency (Hz)")
	simAmp := flag.Float64("sim-amp", 400, "Simulated amplitude")
	simNoise := flag.Float64("sim-noise", 8, "Simulated uniform noise")
	audio := flag.String("audio", "", "Capture from this audio device instead of a serial port")
	audioRate := flag.Int("audio-rate", 8000, "Audio capture rate (Hz)")
	replay := flag.String("replay", "", "Replay a recorded WAV file instead of a serial port")
	record := flag.String("record", "", "Record raw samples to this WAV file")

	listen := flag.String("listen", "", "Status/metrics HTTP address, e.g. :9100")
	broker := flag.String("mqtt", "", "MQTT broker for band telemetry, e.g. tcp://localhost:1883")
	topic := flag.String("mqtt-topic", "bandctl/bands", "MQTT topic")
	debugCSV := flag.String("debug-csv", "", "Write control ticks to this CSV file")
	jsonLog := flag.Bool("log-json", false, "JSON logs")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := bandctl.NewLogger(os.Stderr, level, *jsonLog)
	slog.SetDefault(logger)

	// 2. 配置
	cfg := bandctl.DefaultConfig()
	if *mode == string(bandctl.ModeRange) {
		cfg = bandctl.DefaultRangeConfig()
	} else {
		cfg.Control.Mode = bandctl.ControlMode(*mode)
	}
	cfg.Acquisition.SampleRate = *fs
	cfg.Acquisition.BufferSeconds = *bufSec
	cfg.Acquisition.Baud = *baud
	cfg.Spectrum.WindowSeconds = *winSec
	cfg.Conditioning.SmoothN = *smooth
	cfg.Conditioning.RemoveDC = !*noDC
	cfg.Conditioning.ZScoreView = !*noZ
	cfg.Control.TargetBand = *band
	cfg.Control.Threshold = *thr
	cfg.Control.Direction = bandctl.Direction(*dir)
	cfg.Control.Enabled = *enable
	cfg.Range.Low = *low
	cfg.Range.High = *high

	norm, err := cfg.Normalize()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 3. 样本源与执行器
	var (
		source   bandctl.SampleSource
		actuator bandctl.Actuator
		link     *bandctl.SerialLink
	)
	switch {
	case *replay != "":
		source = bandctl.NewWAVSource(*replay, norm.Acquisition.SampleRate, true)
		fmt.Printf("Mode: REPLAY (%s)\n", *replay)
	case *audio != "":
		source = bandctl.NewAudioSource(*audio, *audioRate, norm.Acquisition.SampleRate)
		fmt.Printf("Mode: AUDIO (%s @ %d Hz -> %.0f Hz)\n", *audio, *audioRate, norm.Acquisition.SampleRate)
	case *sim:
		port := bandctl.NewSimPort(bandctl.SimConfig{
			SampleRate: norm.Acquisition.SampleRate,
			Amplitude:  *simAmp,
			Frequency:  *simFreq,
			Noise:      *simNoise,
			Realtime:   true,
			Seed:       time.Now().UnixNano(),
		})
		link = bandctl.NewSerialLinkFrom(port)
		fmt.Printf("Mode: SIMULATED (%.1f Hz tone)\n", *simFreq)
	default:
		link = bandctl.NewSerialLink(*portName, norm.Acquisition.Baud, norm.Acquisition.ReadTimeout)
		fmt.Printf("Connecting to sensor on %s...\n", *portName)
		if err := link.Open(); err != nil {
			log.Fatalf("Could not open serial port: %v", err)
		}
		fmt.Println("Serial port opened.")
	}
	if link != nil {
		source = link
		actuator = link.Actuator(norm.Control.WriteTimeout)
	}

	// 4. 输出
	metrics := bandctl.NewMetrics()
	sinks := bandctl.MultiSink{&bandctl.ConsoleSink{W: os.Stdout, Every: 25}}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *listen != "" {
		status := bandctl.NewStatusServer(metrics)
		sinks = append(sinks, status)
		go func() {
			if err := status.ListenAndServe(ctx, *listen); err != nil {
				logger.Error("status server", "err", err)
			}
		}()
	}

	var debugger bandctl.TickDebugger = &bandctl.NoOpDebugger{}
	if *debugCSV != "" {
		d, err := bandctl.NewCsvTickDebugger(*debugCSV)
		if err != nil {
			log.Fatalf("Could not create %s: %v", *debugCSV, err)
		}
		debugger = d
	}
	defer debugger.Close()

	opts := bandctl.SessionOptions{
		Logger:   logger,
		Metrics:  metrics,
		Debugger: debugger,
	}
	if *record != "" {
		rec, err := bandctl.NewWAVRecorder(*record, norm.Acquisition.SampleRate, bandctl.SimRange)
		if err != nil {
			log.Fatalf("Could not create %s: %v", *record, err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Error("recording", "err", err)
			}
		}()
		opts.Recorder = rec
	}
	if link != nil {
		opts.Closer = link
	}

	session, err := bandctl.NewSession(norm, source, actuator, opts)
	if err != nil {
		log.Fatalf("Session init failed: %v", err)
	}

	if *broker != "" {
		mq, client, err := bandctl.DialMQTT(*broker, *topic, "bandctl-"+session.ID, 200*time.Millisecond, logger)
		if err != nil {
			logger.Warn("mqtt disabled", "err", err)
		} else {
			sinks = append(sinks, mq)
			defer client.Disconnect(250)
		}
	}
	// sink 在 Start 之前设置
	session.SetSink(sinks)

	// 5. 启动
	session.Start(ctx)
	defer session.Stop()

	go readConsole(session, stop)

	select {
	case <-ctx.Done():
		fmt.Println("\nShutting down...")
	case <-session.Done():
		if err := session.Err(); err != nil {
			fmt.Printf("\nDisconnected: %v\n", err)
		}
	}
}

// readConsole 控制台命令：enable / disable / band <name> / thr <x> / dir <op> / range <lo> <hi> / exit
func readConsole(s *bandctl.Session, quit func()) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("System Ready. (Type 'help' for commands, 'exit' to quit)")

	for scanner.Scan() {
		fields := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(fields) == 0 {
			continue
		}
		cmd := strings.ToLower(fields[0])
		if cmd == "exit" || cmd == "quit" {
			quit()
			return
		}

		cfg := *s.Config()
		switch {
		case cmd == "enable":
			cfg.Control.Enabled = true
		case cmd == "disable":
			cfg.Control.Enabled = false
		case cmd == "band" && len(fields) == 2:
			cfg.Control.TargetBand = fields[1]
		case cmd == "dir" && len(fields) == 2:
			cfg.Control.Direction = bandctl.Direction(fields[1])
		case cmd == "thr" && len(fields) == 2:
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				fmt.Println("Invalid threshold.")
				continue
			}
			cfg.Control.Threshold = v
		case cmd == "range" && len(fields) == 3:
			lo, err1 := strconv.ParseFloat(fields[1], 64)
			hi, err2 := strconv.ParseFloat(fields[2], 64)
			if err1 != nil || err2 != nil {
				fmt.Println("Invalid range.")
				continue
			}
			cfg.Range.Low, cfg.Range.High = lo, hi
		default:
			fmt.Println("Commands: enable | disable | band <name> | thr <x> | dir >=|<= | range <lo> <hi> | exit")
			continue
		}

		if err := s.SetConfig(cfg); err != nil {
			fmt.Printf("Rejected: %v\n", err)
			continue
		}
		fmt.Print("> ")
	}
}
