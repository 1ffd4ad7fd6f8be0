package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParameters(t *testing.T) {
	p := DefaultParameters()
	assert.Equal(t, 0.05, p.StopLossRatio)
	assert.Equal(t, 1.5, p.ATRMultiplier)
	assert.Equal(t, 1.2, p.VolumeThreshold)
	assert.Equal(t, 0.03, p.MaxPriceDeviation)
	assert.Equal(t, 0.15, p.TakeProfitRatio)
	assert.Equal(t, 0.08, p.TrailingStopRatio)
	assert.Equal(t, 0.10, p.PositionRatio)
	assert.Equal(t, 10, p.MaxPositions)
	assert.True(t, p.UseATRStop)
}

func TestParamsForRegime(t *testing.T) {
	tests := []struct {
		regime          Regime
		stopLoss        float64
		atrMultiplier   float64
		volumeThreshold float64
		takeProfit      float64
		trailingStop    float64
		positionRatio   float64
		maxPositions    int
	}{
		{TrendUp, 0.07, 2.0, 1.1, 0.20, 0.10, 0.12, 10},
		{TrendDown, 0.03, 1.0, 1.5, 0.10, 0.05, 0.05, 5},
		{HighVolatility, 0.03, 1.2, 1.4, 0.12, 0.06, 0.06, 8},
		{LowVolatility, 0.08, 2.5, 1.1, 0.18, 0.12, 0.15, 12},
		{Consolidation, 0.05, 1.5, 1.2, 0.15, 0.08, 0.10, 10},
	}

	for _, tt := range tests {
		t.Run(string(tt.regime), func(t *testing.T) {
			p := ParamsFor(tt.regime)
			assert.Equal(t, tt.stopLoss, p.StopLossRatio)
			assert.Equal(t, tt.atrMultiplier, p.ATRMultiplier)
			assert.Equal(t, tt.volumeThreshold, p.VolumeThreshold)
			assert.Equal(t, tt.takeProfit, p.TakeProfitRatio)
			assert.Equal(t, tt.trailingStop, p.TrailingStopRatio)
			assert.Equal(t, tt.positionRatio, p.PositionRatio)
			assert.Equal(t, tt.maxPositions, p.MaxPositions)
			// 未覆写的字段继承默认值
			assert.Equal(t, 0.03, p.MaxPriceDeviation)
		})
	}
}

func TestParamsForUnknownRegimeFallsBack(t *testing.T) {
	assert.Equal(t, DefaultParameters(), ParamsFor(Regime("unknown")))
}
