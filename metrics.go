package bandctl

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 管线运行指标，使用独立的 Registry
type Metrics struct {
	Registry *prometheus.Registry

	SamplesIngested prometheus.Counter
	LinesDiscarded  prometheus.Counter
	BufferFill      prometheus.Gauge
	Ticks           *prometheus.CounterVec // task=display|control, result=ok|no_data
	Commands        *prometheus.CounterVec // command=ON|OFF
	ActuationErrors prometheus.Counter
	BandFraction    *prometheus.GaugeVec // band
	PeakFrequency   prometheus.Gauge
}

// NewMetrics 创建并注册全部指标
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		SamplesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bandctl_samples_ingested_total",
			Help: "Samples appended to the ring buffer.",
		}),
		LinesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bandctl_lines_discarded_total",
			Help: "Non-numeric lines skipped by the reader.",
		}),
		BufferFill: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bandctl_buffer_samples",
			Help: "Samples currently held in the ring buffer.",
		}),
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bandctl_ticks_total",
			Help: "Periodic task ticks by task and result.",
		}, []string{"task", "result"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bandctl_commands_sent_total",
			Help: "Actuation commands written to the device.",
		}, []string{"command"}),
		ActuationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bandctl_actuation_errors_total",
			Help: "Failed or timed out actuation writes.",
		}),
		BandFraction: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bandctl_band_fraction",
			Help: "Latest band power fraction of the total band.",
		}, []string{"band"}),
		PeakFrequency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bandctl_peak_frequency_hz",
			Help: "Dominant frequency inside the total band.",
		}),
	}
	m.Registry.MustRegister(
		m.SamplesIngested,
		m.LinesDiscarded,
		m.BufferFill,
		m.Ticks,
		m.Commands,
		m.ActuationErrors,
		m.BandFraction,
		m.PeakFrequency,
	)
	return m
}

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeFrame(f *Frame) {
	for _, b := range f.Bands.Fractions {
		m.BandFraction.WithLabelValues(b.Name).Set(b.Fraction)
	}
	m.PeakFrequency.Set(f.PeakFrequency)
}
