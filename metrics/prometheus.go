// Package metrics 封装了基于 Prometheus 的指标注册表与 LCA 查询相关的标准指标。
package metrics

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics 封装了基于 Prometheus 的指标采集注册表及预定义的标准监控指标。
type Metrics struct {
	registry *prometheus.Registry // 内部独立的 Prometheus 注册中心

	QueriesTotal  *prometheus.CounterVec // 三元查询总量 (维度: relation)
	QueryErrors   *prometheus.CounterVec // 单次查询失败数 (维度: reason)
	BuildDuration prometheus.Histogram   // 倍增表构建耗时
	TreeNodes     prometheus.Gauge       // 当前树的节点数
	BuildInfo     *prometheus.GaugeVec   // 构建信息
}

// NewMetrics 初始化并返回一个新的指标采集器。
// 它会自动注册 Go 运行时指标和进程指标。
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.QueriesTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "treelift_queries_total",
		Help: "Total number of classified triple queries",
	}, []string{"relation"})

	m.QueryErrors = m.NewCounterVec(prometheus.CounterOpts{
		Name: "treelift_query_errors_total",
		Help: "Total number of rejected queries",
	}, []string{"reason"})

	m.BuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "treelift_build_duration_seconds",
		Help:    "Time spent building ancestor tables",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})
	reg.MustRegister(m.BuildDuration)

	m.TreeNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "treelift_tree_nodes",
		Help: "Number of nodes in the most recently built tree",
	})
	reg.MustRegister(m.TreeNodes)

	slog.Debug("unified metrics registry initialized", "service", serviceName)
	return m
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// Registry 返回内部注册表，便于测试或嵌入方采集。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile 以 Prometheus 文本格式将当前指标写入文件 (node_exporter textfile collector 约定)。
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
