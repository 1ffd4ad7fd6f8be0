// Package metrics 提供 Prometheus helper，包含回测与风控的业务指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	// 回测任务计数
	BacktestsTotal prometheus.Counter
	// 回测耗时
	BacktestDuration prometheus.Histogram
	// 模拟成交的交易笔数
	TradesSimulated prometheus.Counter
	// 回测中被跳过的标的数
	SymbolsSkipped prometheus.Counter

	// 风控评估计数
	RiskEvaluationsTotal prometheus.Counter
	// 交易暂停状态（1 表示暂停）
	TradingPaused prometheus.Gauge
	// 仓位计算计数
	SizingRequestsTotal prometheus.Counter

	registry *prometheus.Registry
}

// New 创建指标实例并注册到独立 registry
func New(serviceName string) *Metrics {
	m := &Metrics{
		BacktestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quant",
			Subsystem: serviceName,
			Name:      "backtests_total",
			Help:      "Total backtest runs",
		}),
		BacktestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quant",
			Subsystem: serviceName,
			Name:      "backtest_duration_seconds",
			Help:      "Backtest run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		TradesSimulated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quant",
			Subsystem: serviceName,
			Name:      "trades_simulated_total",
			Help:      "Total simulated trades",
		}),
		SymbolsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quant",
			Subsystem: serviceName,
			Name:      "symbols_skipped_total",
			Help:      "Symbols skipped due to data errors or panics",
		}),
		RiskEvaluationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quant",
			Subsystem: serviceName,
			Name:      "risk_evaluations_total",
			Help:      "Total drawdown evaluations",
		}),
		TradingPaused: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quant",
			Subsystem: serviceName,
			Name:      "trading_paused",
			Help:      "Whether trading is currently paused (1) or allowed (0)",
		}),
		SizingRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quant",
			Subsystem: serviceName,
			Name:      "sizing_requests_total",
			Help:      "Total position sizing calculations",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.BacktestsTotal,
		m.BacktestDuration,
		m.TradesSimulated,
		m.SymbolsSkipped,
		m.RiskEvaluationsTotal,
		m.TradingPaused,
		m.SizingRequestsTotal,
	)

	return m
}

// Handler 返回 /metrics 的 HTTP 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
