package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	CommandTotal       *prometheus.CounterVec // labels: device, cmd
	ProtocolErrorTotal *prometheus.CounterVec // labels: device, kind
	RecordTotal        *prometheus.CounterVec // labels: device, kind
	SpectrumReadTotal  *prometheus.CounterVec // labels: device
	DoseRateGauge      *prometheus.GaugeVec   // labels: device, uSv/h
	OnlineGauge        prometheus.Gauge       // 当前在线仪器数
	PollDuration       *prometheus.HistogramVec
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		CommandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radiacode_command_total",
			Help: "Device commands executed, by device and command.",
		}, []string{"device", "cmd"}),
		ProtocolErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radiacode_protocol_error_total",
			Help: "Protocol-level failures, by device and error kind.",
		}, []string{"device", "kind"}),
		RecordTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radiacode_record_total",
			Help: "Telemetry records decoded from the device data buffer.",
		}, []string{"device", "kind"}),
		SpectrumReadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radiacode_spectrum_read_total",
			Help: "Spectrum snapshots read from devices.",
		}, []string{"device"}),
		DoseRateGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "radiacode_dose_rate_usv_h",
			Help: "Last observed dose rate per device, uSv/h.",
		}, []string{"device"}),
		OnlineGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "radiacode_online_count",
			Help: "Current number of online instruments.",
		}),
		PollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "radiacode_poll_duration_seconds",
			Help:    "Duration of one poll cycle per device.",
			Buckets: prometheus.DefBuckets,
		}, []string{"device"}),
	}
	reg.MustRegister(m.CommandTotal, m.ProtocolErrorTotal, m.RecordTotal,
		m.SpectrumReadTotal, m.DoseRateGauge, m.OnlineGauge, m.PollDuration)
	return m
}
