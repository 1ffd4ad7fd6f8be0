package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultMetricsEmpty(t *testing.T) {
	r := NewResult()
	m := r.Metrics()
	assert.Zero(t, m.TotalTrades)
	assert.Zero(t, m.WinRate)
	assert.Zero(t, m.TotalReturn)
}

func TestResultMetricsBasic(t *testing.T) {
	r := NewResult()
	r.AddTrades([]Trade{
		{Pnl: 1.0, PnlPct: 0.10},
		{Pnl: 2.0, PnlPct: 0.20},
		{Pnl: -1.0, PnlPct: -0.05},
		{Pnl: -0.5, PnlPct: -0.05},
	})

	m := r.Metrics()
	assert.Equal(t, 4, m.TotalTrades)
	assert.InDelta(t, 50.0, m.WinRate, 1e-9)
	// 盈利因子 = (1+2) / (1+0.5)
	assert.InDelta(t, 2.0, m.ProfitFactor, 1e-9)
	// 总收益 = (0.10+0.20−0.05−0.05)×100
	assert.InDelta(t, 20.0, m.TotalReturn, 1e-9)
}

func TestResultMetricsNoLosses(t *testing.T) {
	r := NewResult()
	r.AddTrade(Trade{Pnl: 1.0, PnlPct: 0.10})
	r.AddTrade(Trade{Pnl: 0.5, PnlPct: 0.05})

	m := r.Metrics()
	// 无亏损时盈亏比封顶为有限值，保证可序列化、可落库
	assert.InDelta(t, maxProfitFactor, m.ProfitFactor, 1e-9)
	assert.False(t, math.IsInf(m.ProfitFactor, 1))
	assert.InDelta(t, 100.0, m.WinRate, 1e-9)
	// 无亏损则无回撤
	assert.Zero(t, m.MaxDrawdown)

	data, err := json.Marshal(m)
	assert.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestResultMaxDrawdown(t *testing.T) {
	r := NewResult()
	// 净值路径：1.0 → 1.2 → 0.96 → 1.056
	r.AddTrades([]Trade{
		{Pnl: 1, PnlPct: 0.20},
		{Pnl: -1, PnlPct: -0.20},
		{Pnl: 1, PnlPct: 0.10},
	})

	m := r.Metrics()
	// 峰值 1.2 回落到 0.96，回撤 20%
	assert.InDelta(t, 20.0, m.MaxDrawdown, 1e-9)
}

func TestResultSharpeNeedsTwoTrades(t *testing.T) {
	r := NewResult()
	r.AddTrade(Trade{Pnl: 1.0, PnlPct: 0.10})
	assert.Zero(t, r.Metrics().SharpeRatio)
}

func TestResultSharpeSign(t *testing.T) {
	r := NewResult()
	r.AddTrades([]Trade{
		{Pnl: 1, PnlPct: 0.10},
		{Pnl: 1, PnlPct: 0.12},
		{Pnl: 1, PnlPct: 0.08},
	})
	assert.Greater(t, r.Metrics().SharpeRatio, 0.0)

	r2 := NewResult()
	r2.AddTrades([]Trade{
		{Pnl: -1, PnlPct: -0.10},
		{Pnl: -1, PnlPct: -0.12},
		{Pnl: -1, PnlPct: -0.08},
	})
	assert.Less(t, r2.Metrics().SharpeRatio, 0.0)
}
