package bandctl

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// mqttPublisher mqtt.Client 中用到的部分
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// telemetry MQTT 负载，不带波形和历史
type telemetry struct {
	Session    string              `json:"session"`
	Time       time.Time           `json:"time"`
	Bands      []BandPowerFraction `json:"bands"`
	TotalPower float64             `json:"total_power"`
	PeakHz     float64             `json:"peak_hz"`
}

// MQTTSink 把频段占比发布到 MQTT，按 MinInterval 节流
type MQTTSink struct {
	client      mqttPublisher
	Topic       string
	MinInterval time.Duration
	log         *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// DialMQTT 连接 broker 并返回 sink
func DialMQTT(broker, topic, clientID string, minInterval time.Duration, log *slog.Logger) (*MQTTSink, mqtt.Client, error) {
	if log == nil {
		log = slog.Default()
	}
	client := mqtt.NewClient(clientOptions(broker, clientID, log))
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, nil, fmt.Errorf("mqtt connect %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	return NewMQTTSink(client, topic, minInterval, log), client, nil
}

func clientOptions(broker, clientID string, log *slog.Logger) *mqtt.ClientOptions {
	if log == nil {
		log = slog.Default()
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", "err", err)
	}
	return opts
}

// NewMQTTSink 使用已有的客户端
func NewMQTTSink(client mqttPublisher, topic string, minInterval time.Duration, log *slog.Logger) *MQTTSink {
	if log == nil {
		log = slog.Default()
	}
	return &MQTTSink{client: client, Topic: topic, MinInterval: minInterval, log: log}
}

// Publish 实现 FrameSink，不等待 broker 确认
func (s *MQTTSink) Publish(f *Frame) {
	s.mu.Lock()
	if !s.last.IsZero() && f.Time.Sub(s.last) < s.MinInterval {
		s.mu.Unlock()
		return
	}
	s.last = f.Time
	s.mu.Unlock()

	payload, err := json.Marshal(telemetry{
		Session:    f.Session,
		Time:       f.Time,
		Bands:      f.Bands.Fractions,
		TotalPower: f.Bands.Total,
		PeakHz:     f.PeakFrequency,
	})
	if err != nil {
		s.log.Error("marshal telemetry", "err", err)
		return
	}

	token := s.client.Publish(s.Topic, 0, false, payload)
	go func() {
		if token.WaitTimeout(time.Second) && token.Error() != nil {
			s.log.Warn("mqtt publish failed", "topic", s.Topic, "err", token.Error())
		}
	}()
}
