// Package application 提供自适应策略应用服务。
package application

import (
	"log/slog"
	"sync"
	"time"

	"github.com/wyfcoding/quantengine/internal/regime/domain"
)

// RegimeSnapshot 一次状态识别的记录
type RegimeSnapshot struct {
	Timestamp  time.Time     `json:"timestamp"`
	Regime     domain.Regime `json:"regime"`
	Volatility float64       `json:"volatility"`
	ADX        float64       `json:"adx"`
}

// maxHistory 保留的识别历史条数
const maxHistory = 100

// AdaptiveStrategy 自适应策略控制器。
// 每次调用方构造独立实例并显式注入，不使用包级单例。
type AdaptiveStrategy struct {
	detector *domain.Detector
	logger   *slog.Logger

	mu            sync.Mutex
	currentRegime domain.Regime
	currentParams domain.Parameters
	history       []RegimeSnapshot
}

// NewAdaptiveStrategy 创建自适应策略控制器
func NewAdaptiveStrategy(logger *slog.Logger) *AdaptiveStrategy {
	return &AdaptiveStrategy{
		detector:      domain.NewDetector(),
		logger:        logger,
		currentRegime: domain.Consolidation,
		currentParams: domain.DefaultParameters(),
	}
}

// UpdateRegime 根据基准指数序列更新市场状态与参数，返回识别结果
func (s *AdaptiveStrategy) UpdateRegime(indexPrices, benchmarkPrices []float64) (domain.Regime, domain.Metrics) {
	regime, metrics := s.detector.Detect(indexPrices, benchmarkPrices)

	s.mu.Lock()
	s.currentRegime = regime
	s.currentParams = domain.ParamsFor(regime)
	s.history = append(s.history, RegimeSnapshot{
		Timestamp:  time.Now(),
		Regime:     regime,
		Volatility: metrics.Volatility,
		ADX:        metrics.ADX,
	})
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
	s.mu.Unlock()

	s.logger.Info("market regime updated",
		"regime", string(regime),
		"volatility", metrics.Volatility,
		"adx", metrics.ADX,
		"style_drift", metrics.StyleDrift,
	)

	return regime, metrics
}

// CurrentParams 获取当前参数
func (s *AdaptiveStrategy) CurrentParams() domain.Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentParams
}

// CurrentRegime 获取当前市场状态
func (s *AdaptiveStrategy) CurrentRegime() domain.Regime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRegime
}

// History 返回识别历史的副本
func (s *AdaptiveStrategy) History() []RegimeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RegimeSnapshot, len(s.history))
	copy(out, s.history)
	return out
}

// Reset 重置为盘整市默认参数
func (s *AdaptiveStrategy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentRegime = domain.Consolidation
	s.currentParams = domain.DefaultParameters()
}
