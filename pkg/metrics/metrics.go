package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 状态迁移结果标签
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeAlreadyDone = "already_done"
	OutcomeConflict    = "conflict"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
)

// Metrics 值班生命周期指标
// 使用独立 Registry，测试中可重复创建
type Metrics struct {
	registry *prometheus.Registry

	Transitions   *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec
}

// New 创建并注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "halld_duty_transitions_total",
			Help: "Duty record transitions by operation and outcome",
		}, []string{"operation", "outcome"}),
		StoreDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "halld_duty_store_duration_seconds",
			Help:    "Duration of store round trips per lifecycle operation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// RecordTransition 记录一次状态迁移尝试；m 为 nil 时忽略
func (m *Metrics) RecordTransition(operation, outcome string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(operation, outcome).Inc()
}

// ObserveStore 记录一次操作的存储耗时，调用方在操作开始时传入 time.Now()
func (m *Metrics) ObserveStore(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Handler /metrics 暴露端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回底层 Registry（测试读取指标用）
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
