package domain

import (
	"math"

	"github.com/montanaflynn/stats"
)

// riskFreeRate 夏普比率假设的年化无风险利率
const riskFreeRate = 0.03

// maxProfitFactor 无亏损交易时盈亏比的封顶值。
// 指标会被 JSON 序列化并落库，不能携带 +Inf。
const maxProfitFactor = 9999.99

// ResultMetrics 回测汇总指标
type ResultMetrics struct {
	TotalTrades  int     `json:"total_trades"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	TotalReturn  float64 `json:"total_return"`
}

// Result 回测结果，持有全部交易记录，指标按需计算
type Result struct {
	trades  []Trade
	skipped int
}

// NewResult 创建空的回测结果
func NewResult() *Result {
	return &Result{}
}

// AddTrade 追加一笔交易记录
func (r *Result) AddTrade(trade Trade) {
	r.trades = append(r.trades, trade)
}

// AddTrades 批量追加交易记录
func (r *Result) AddTrades(trades []Trade) {
	r.trades = append(r.trades, trades...)
}

// AddSkipped 累加因数据错误或 panic 被跳过的标的数
func (r *Result) AddSkipped(n int) {
	r.skipped += n
}

// Trades 返回交易记录
func (r *Result) Trades() []Trade {
	return r.trades
}

// Skipped 返回被跳过的标的数
func (r *Result) Skipped() int {
	return r.skipped
}

// Metrics 计算汇总指标。指标是交易列表的纯函数，不缓存。
func (r *Result) Metrics() ResultMetrics {
	if len(r.trades) == 0 {
		return ResultMetrics{}
	}

	total := len(r.trades)
	wins := 0
	grossProfit := 0.0
	grossLoss := 0.0
	pnlPcts := make([]float64, 0, total)

	for _, t := range r.trades {
		if t.Pnl > 0 {
			wins++
			grossProfit += t.Pnl
		} else if t.Pnl < 0 {
			grossLoss += math.Abs(t.Pnl)
		}
		pnlPcts = append(pnlPcts, t.PnlPct)
	}

	winRate := float64(wins) / float64(total)

	profitFactor := maxProfitFactor
	if grossLoss > 0 {
		profitFactor = math.Min(grossProfit/grossLoss, maxProfitFactor)
	}

	totalReturn := 0.0
	for _, p := range pnlPcts {
		totalReturn += p
	}

	maxDrawdown := calcMaxDrawdown(pnlPcts)
	sharpe := calcSharpe(pnlPcts)

	return ResultMetrics{
		TotalTrades:  total,
		WinRate:      round2(winRate * 100),
		ProfitFactor: round2(profitFactor),
		MaxDrawdown:  round2(maxDrawdown * 100),
		SharpeRatio:  round2(sharpe),
		TotalReturn:  round2(totalReturn * 100),
	}
}

// calcMaxDrawdown 基于逐笔收益率的累计净值计算最大回撤
func calcMaxDrawdown(pnlPcts []float64) float64 {
	cumulative := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, p := range pnlPcts {
		cumulative *= 1 + p
		if cumulative > peak {
			peak = cumulative
		}
		if peak > 0 {
			dd := (peak - cumulative) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// calcSharpe 按日化无风险利率计算逐笔收益的年化夏普比率
func calcSharpe(pnlPcts []float64) float64 {
	if len(pnlPcts) < 2 {
		return 0.0
	}

	dailyRiskFree := riskFreeRate / 252
	excess := make([]float64, len(pnlPcts))
	for i, p := range pnlPcts {
		excess[i] = p - dailyRiskFree
	}

	mean, err := stats.Mean(excess)
	if err != nil {
		return 0.0
	}
	sd, err := stats.StandardDeviationSample(excess)
	if err != nil || sd == 0 {
		return 0.0
	}
	return mean / sd * math.Sqrt(252)
}

func round2(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return math.Round(v*100) / 100
}
