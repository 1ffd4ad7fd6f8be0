// Package domain 提供市场状态识别的核心逻辑。
// 基于基准指数价格序列计算波动率、趋势强度与市场宽度，输出离散的市场状态。
package domain

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Regime 市场状态枚举
type Regime string

const (
	TrendUp        Regime = "trend_up"
	TrendDown      Regime = "trend_down"
	Consolidation  Regime = "consolidation"
	HighVolatility Regime = "high_vol"
	LowVolatility  Regime = "low_vol"
)

// Metrics 市场状态识别的中间指标
type Metrics struct {
	// 年化波动率
	Volatility float64 `json:"volatility"`
	// 简化 ADX 趋势强度（0-100）
	ADX float64 `json:"adx"`
	// 趋势强度（ADX/100）
	TrendStrength float64 `json:"trend_strength"`
	// 市场宽度代理值
	MarketBreadth float64 `json:"market_breadth"`
	// 均线排列：bullish / bearish / mixed
	MAAlignment string `json:"ma_alignment"`
	// 最新价相对中期均线的偏离（百分比）
	PricePosition float64 `json:"price_position"`
	// 风格偏离度：自身20日收益减对比指数20日收益
	StyleDrift float64 `json:"style_drift"`
}

// Detector 市场状态识别器
type Detector struct {
	// Lookback 最小观测数量
	Lookback int
}

// NewDetector 创建识别器，默认回看 60 个观测
func NewDetector() *Detector {
	return &Detector{Lookback: 60}
}

// Detect 识别市场状态。
// prices 为基准指数收盘价序列（按日期升序），benchmark 为可选的风格对比指数序列。
// 数据不足时返回 Consolidation 与零值指标，不报错。
func (d *Detector) Detect(prices []float64, benchmark []float64) (Regime, Metrics) {
	if len(prices) < d.Lookback {
		return Consolidation, Metrics{}
	}

	returns := pctChanges(prices)
	volatility := 0.0
	if len(returns) > 1 {
		if sd, err := stats.StandardDeviationSample(returns); err == nil {
			volatility = sd * math.Sqrt(252)
		}
	}

	maShort := movingAverage(prices, 10)
	maMedium := movingAverage(prices, 30)
	maLong := movingAverage(prices, 60)

	aboveMedium := fracAboveMA(prices, maMedium, 20)
	aboveLong := fracAboveMA(prices, maLong, 20)

	adxValue := calculateADX(prices, 14)
	breadth := estimateBreadth(prices)
	styleDrift := calculateStyleDrift(prices, benchmark)

	regime := decideRegime(volatility, adxValue, aboveMedium, aboveLong, styleDrift)

	metrics := Metrics{
		Volatility:    volatility,
		ADX:           adxValue,
		TrendStrength: adxValue / 100,
		MarketBreadth: breadth,
		MAAlignment:   checkMAAlignment(maShort, maMedium, maLong),
		PricePosition: pricePosition(prices, maMedium),
		StyleDrift:    styleDrift,
	}

	return regime, metrics
}

// decideRegime 按优先级判定市场状态。
// 风格踩踏判定优先：小票大幅跑输对比指数（20日跑输5%）时强制进入下跌趋势。
func decideRegime(volatility, adx, aboveMedium, aboveLong, styleDrift float64) Regime {
	if styleDrift < -0.05 {
		return TrendDown
	}

	if volatility > 0.25 {
		return HighVolatility
	}
	if volatility < 0.15 && volatility > 0 {
		return LowVolatility
	}

	if adx > 25 {
		if aboveMedium > 0.6 && aboveLong > 0.55 {
			return TrendUp
		}
		if aboveMedium < 0.4 && aboveLong < 0.45 {
			return TrendDown
		}
	}

	return Consolidation
}

// pctChanges 计算相邻观测的简单收益率
func pctChanges(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	changes := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			changes = append(changes, 0)
			continue
		}
		changes = append(changes, prices[i]/prices[i-1]-1)
	}
	return changes
}

// movingAverage 计算滚动均线，窗口不足的位置为 NaN
func movingAverage(prices []float64, window int) []float64 {
	ma := make([]float64, len(prices))
	sum := 0.0
	for i := range prices {
		sum += prices[i]
		if i >= window {
			sum -= prices[i-window]
		}
		if i >= window-1 {
			ma[i] = sum / float64(window)
		} else {
			ma[i] = math.NaN()
		}
	}
	return ma
}

// fracAboveMA 统计最近 last 个观测中价格高于均线的比例，均线无效的位置计为不高于
func fracAboveMA(prices, ma []float64, last int) float64 {
	if len(prices) == 0 {
		return 0
	}
	start := len(prices) - last
	if start < 0 {
		start = 0
	}
	count := 0
	total := 0
	for i := start; i < len(prices); i++ {
		total++
		if !math.IsNaN(ma[i]) && prices[i] > ma[i] {
			count++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

// calculateADX 计算简化 ADX：以涨跌频率之比衡量趋势强度并做两次平滑
func calculateADX(prices []float64, period int) float64 {
	if len(prices) < period*2 {
		return 0.0
	}

	n := len(prices)
	upMoves := make([]float64, n)
	downMoves := make([]float64, n)
	for i := 1; i < n; i++ {
		diff := prices[i] - prices[i-1]
		if diff > 0 {
			upMoves[i] = 1
		} else if diff < 0 {
			downMoves[i] = 1
		}
	}

	// dx[i] 自 i >= period 起有效
	dx := make([]float64, n)
	for i := period; i < n; i++ {
		up := mean(upMoves[i-period+1 : i+1])
		down := mean(downMoves[i-period+1 : i+1])
		denominator := up + down + 1e-10
		dx[i] = math.Abs(up-down) / denominator * 100
	}

	// ADX 为 DX 的移动平均，取最新值
	if n-period < period {
		return 0.0
	}
	return mean(dx[n-period : n])
}

// estimateBreadth 以单序列估算市场宽度：站上20日线比例与上涨天数比例的均值
func estimateBreadth(prices []float64) float64 {
	ma20 := movingAverage(prices, 20)
	aboveMA := fracAboveMA(prices, ma20, 20)

	upDays := 0
	total := 0
	start := len(prices) - 20
	if start < 1 {
		start = 1
	}
	for i := start; i < len(prices); i++ {
		total++
		if prices[i] > prices[i-1] {
			upDays++
		}
	}
	upFrac := 0.0
	if total > 0 {
		upFrac = float64(upDays) / float64(total)
	}
	return (aboveMA + upFrac) / 2
}

// calculateStyleDrift 计算风格偏离度：自身与对比指数最近20个观测收益率之差
func calculateStyleDrift(prices, benchmark []float64) float64 {
	if len(benchmark) < 20 || len(prices) < 20 {
		return 0.0
	}
	own := sumReturns(prices[len(prices)-20:])
	bench := sumReturns(benchmark[len(benchmark)-20:])
	return own - bench
}

func sumReturns(prices []float64) float64 {
	total := 0.0
	for _, r := range pctChanges(prices) {
		total += r
	}
	return total
}

func checkMAAlignment(maShort, maMedium, maLong []float64) string {
	n := len(maShort)
	if n == 0 {
		return "mixed"
	}
	s, m, l := maShort[n-1], maMedium[n-1], maLong[n-1]
	if math.IsNaN(s) || math.IsNaN(m) || math.IsNaN(l) {
		return "mixed"
	}
	if s > m && m > l {
		return "bullish"
	}
	if s < m && m < l {
		return "bearish"
	}
	return "mixed"
}

func pricePosition(prices, maMedium []float64) float64 {
	n := len(prices)
	if n == 0 || math.IsNaN(maMedium[n-1]) || maMedium[n-1] == 0 {
		return 0.0
	}
	return (prices[n-1]/maMedium[n-1] - 1) * 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
