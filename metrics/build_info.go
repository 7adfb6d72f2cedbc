package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// RegisterBuildInfo 记录本次运行的二进制版本，treelift_build_info 恒为 1，信息都在标签里。
// 重复调用只保留第一次的标签。
func (m *Metrics) RegisterBuildInfo(serviceName, version string) {
	if m == nil || m.BuildInfo != nil {
		return
	}
	if version == "" {
		version = "dev"
	}

	m.BuildInfo = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "treelift_build_info",
		Help: "Version and Go toolchain of the treelift binary that produced these metrics",
	}, []string{"service", "version", "goversion"})

	m.BuildInfo.WithLabelValues(serviceName, version, runtime.Version()).Set(1)
}
