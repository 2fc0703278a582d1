package section

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/John-Robertt/folio/internal/async"
)

// Metrics 以 async.Observer 的形式记录每个 section 的拉取次数、结果与耗时。
type Metrics struct {
	inflight *prometheus.GaugeVec
	settles  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var _ async.Observer = (*Metrics)(nil)

// NewMetrics 创建并注册 section 指标；reg 为 nil 时只创建不注册（测试用）。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "folio",
			Subsystem: "section",
			Name:      "inflight",
			Help:      "Section loads currently in flight.",
		}, []string{"section"}),
		settles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "section",
			Name:      "settles_total",
			Help:      "Settled section loads by result (ok, error, stale).",
		}, []string{"section", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "folio",
			Subsystem: "section",
			Name:      "load_duration_seconds",
			Help:      "Section load latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"section"}),
	}
	if reg != nil {
		reg.MustRegister(m.inflight, m.settles, m.latency)
	}
	return m
}

func (m *Metrics) OnStart(name string, _ uint64) {
	m.inflight.WithLabelValues(name).Inc()
}

func (m *Metrics) OnSettle(name string, _ uint64, errMsg string, stale bool, dur time.Duration) {
	m.inflight.WithLabelValues(name).Dec()
	result := "ok"
	switch {
	case stale:
		result = "stale"
	case errMsg != "":
		result = "error"
	}
	m.settles.WithLabelValues(name, result).Inc()
	m.latency.WithLabelValues(name).Observe(dur.Seconds())
}
