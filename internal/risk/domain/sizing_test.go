package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePositionSizeByRiskBudget(t *testing.T) {
	// 风险预算 1,000,000×0.003=3000，止损距离 5 → 600 股
	result := CalculatePositionSize(SizingInput{
		Price:           50,
		StopLoss:        45,
		TotalCapital:    1000000,
		RiskBudgetRatio: 0.003,
		RiskScale:       1.0,
	})

	assert.Equal(t, 600, result.Shares)
	assert.InDelta(t, 30000.0, result.Amount, 1e-9)
	assert.InDelta(t, 3000.0, result.RiskBudget, 1e-9)
	assert.InDelta(t, 5.0, result.StopDistance, 1e-9)
	assert.Empty(t, result.Reasons)
}

func TestCalculatePositionSizeLiquidityCap(t *testing.T) {
	// ADV 50 万 × 5% = 25000 → 市值上限 500 股
	result := CalculatePositionSize(SizingInput{
		Price:           50,
		StopLoss:        45,
		TotalCapital:    1000000,
		RiskBudgetRatio: 0.003,
		RiskScale:       1.0,
		ADVAmount:       500000,
	})

	assert.Equal(t, 500, result.Shares)
}

func TestCalculatePositionSizeRemainingCapitalCap(t *testing.T) {
	remaining := 50000.0
	// 预算支持 2000 股，剩余资金只够 1000 股
	result := CalculatePositionSize(SizingInput{
		Price:            50,
		StopLoss:         45,
		TotalCapital:     1000000,
		RiskBudgetRatio:  0.01,
		RiskScale:        1.0,
		RemainingCapital: &remaining,
	})

	assert.Equal(t, 1000, result.Shares)
}

func TestCalculatePositionSizeRiskScale(t *testing.T) {
	// 风险缩放 0.5 时预算减半：1500/5 = 300 股
	result := CalculatePositionSize(SizingInput{
		Price:           50,
		StopLoss:        45,
		TotalCapital:    1000000,
		RiskBudgetRatio: 0.003,
		RiskScale:       0.5,
	})
	assert.Equal(t, 300, result.Shares)

	// 缩放为 0 暂停开仓
	result = CalculatePositionSize(SizingInput{
		Price:           50,
		StopLoss:        45,
		TotalCapital:    1000000,
		RiskBudgetRatio: 0.003,
	})
	assert.Zero(t, result.Shares)
	require.Len(t, result.Reasons, 1)
	assert.Equal(t, "风险缩放为0，暂停开仓", result.Reasons[0])
}

func TestCalculatePositionSizeLotRounding(t *testing.T) {
	// 预算 3250/5 = 650 股，向下取整到 600
	result := CalculatePositionSize(SizingInput{
		Price:           50,
		StopLoss:        45,
		TotalCapital:    1000000,
		RiskBudgetRatio: 0.00325,
		RiskScale:       1.0,
	})
	assert.Equal(t, 600, result.Shares)
	assert.Zero(t, result.Shares%100)
}

func TestCalculatePositionSizeInvalidStop(t *testing.T) {
	result := CalculatePositionSize(SizingInput{
		Price:           50,
		StopLoss:        55,
		TotalCapital:    1000000,
		RiskBudgetRatio: 0.003,
		RiskScale:       1.0,
	})
	assert.Zero(t, result.Shares)
	require.Len(t, result.Reasons, 1)
	assert.Equal(t, "止损价异常，跳过", result.Reasons[0])
}

func TestCalculatePositionSizeExhaustedCapital(t *testing.T) {
	remaining := 0.0
	result := CalculatePositionSize(SizingInput{
		Price:            50,
		StopLoss:         45,
		TotalCapital:     1000000,
		RiskBudgetRatio:  0.003,
		RiskScale:        1.0,
		RemainingCapital: &remaining,
	})
	assert.Zero(t, result.Shares)
	require.Len(t, result.Reasons, 1)
	assert.Equal(t, "仓位额度已用尽", result.Reasons[0])
}

func TestCalculatePositionSizeBelowMinLot(t *testing.T) {
	result := CalculatePositionSize(SizingInput{
		Price:           50,
		StopLoss:        45,
		TotalCapital:    10000,
		RiskBudgetRatio: 0.003,
		RiskScale:       1.0,
	})
	assert.Zero(t, result.Shares)
	require.Len(t, result.Reasons, 1)
	assert.Equal(t, "建议仓位低于最小成交单位", result.Reasons[0])
}

func TestCalculatePositionSizeRiskContributionLimit(t *testing.T) {
	// 单笔预算 200,000×0.05=10000 超过组合风险上限
	// 组合预算 = 200,000×0.05×10，单票上限 25% → 25000，取较小者 10000
	result := CalculatePositionSize(SizingInput{
		Price:           50,
		StopLoss:        45,
		TotalCapital:    200000,
		RiskBudgetRatio: 0.05,
		RiskScale:       1.0,
	})
	assert.InDelta(t, 10000.0, result.RiskBudget, 1e-9)

	// 收紧单票风险占比后预算被压缩
	result = CalculatePositionSize(SizingInput{
		Price:                 50,
		StopLoss:              45,
		TotalCapital:          200000,
		RiskBudgetRatio:       0.05,
		RiskScale:             1.0,
		RiskContributionLimit: 0.05,
	})
	assert.InDelta(t, 5000.0, result.RiskBudget, 1e-9)
}

func TestCalculatePositionSizeLiquidityMonotonic(t *testing.T) {
	shares := func(adv float64) int {
		return CalculatePositionSize(SizingInput{
			Price:           50,
			StopLoss:        45,
			TotalCapital:    1000000,
			RiskBudgetRatio: 0.003,
			RiskScale:       1.0,
			ADVAmount:       adv,
		}).Shares
	}

	// ADV 越大，流动性约束越松，建议股数单调不减
	prev := 0
	for _, adv := range []float64{100000, 300000, 500000, 1000000, 5000000} {
		got := shares(adv)
		assert.GreaterOrEqual(t, got, prev, "adv %.0f", adv)
		prev = got
	}
}

func TestEstimateADV(t *testing.T) {
	amounts := []float64{100000, 200000, 300000}
	assert.InDelta(t, 200000.0, EstimateADV(amounts, nil, 10, 20), 1e-9)

	// 无成交额时退回成交量×现价
	volumes := []float64{10000, 20000, 30000}
	assert.InDelta(t, 200000.0, EstimateADV(nil, volumes, 10, 20), 1e-9)

	// 仅取窗口内观测
	assert.InDelta(t, 250000.0, EstimateADV(amounts, nil, 10, 2), 1e-9)

	assert.Zero(t, EstimateADV(nil, nil, 10, 20))
}
