package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barsFromCloses(closes []float64) []Bar {
	bars := make([]Bar, len(closes))
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = Bar{
			Date:   day.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestMovingAverage(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 3, 4, 5})
	ma := MovingAverage(bars, 3)

	require.Len(t, ma, 5)
	assert.True(t, math.IsNaN(ma[0]))
	assert.True(t, math.IsNaN(ma[1]))
	assert.InDelta(t, 2.0, ma[2], 1e-9)
	assert.InDelta(t, 3.0, ma[3], 1e-9)
	assert.InDelta(t, 4.0, ma[4], 1e-9)
}

func TestATR(t *testing.T) {
	// 每日高低差 1.0，无跳空，ATR 应为 1.0
	bars := make([]Bar, 20)
	for i := range bars {
		bars[i] = Bar{High: 10.5, Low: 9.5, Close: 10.0}
	}
	assert.InDelta(t, 1.0, ATR(bars, 14), 1e-9)

	// 数据不足返回 0
	assert.Zero(t, ATR(bars[:10], 14))
}

func TestATRWithGap(t *testing.T) {
	// 跳空时真实波幅取与前收盘的差值
	bars := []Bar{
		{High: 10.2, Low: 9.8, Close: 10.0},
		{High: 12.2, Low: 11.8, Close: 12.0},
	}
	// TR = max(0.4, |12.2-10|, |11.8-10|) = 2.2
	assert.InDelta(t, 2.2, ATR(bars, 1), 1e-9)
}

func TestStopLossPriceTakesTightest(t *testing.T) {
	bars := make([]Bar, 20)
	for i := range bars {
		bars[i] = Bar{High: 10.1, Low: 9.9, Close: 10.0}
	}

	// 固定止损 9.5，均线止损 9.9×... 取三者较高值
	// ATR = 0.2, atrStop = 10 − 1.5×0.2 = 9.7；maStop = 9.9×0.99 = 9.801
	stop := StopLossPrice(10.0, 9.9, bars, 1.5, 0.05)
	assert.InDelta(t, 9.801, stop, 1e-9)

	// 收紧固定止损比例后固定止损更高
	stop = StopLossPrice(10.0, 9.9, bars, 1.5, 0.01)
	assert.InDelta(t, 9.9, stop, 1e-9)
}

func TestTakeProfitPrice(t *testing.T) {
	assert.InDelta(t, 11.5, TakeProfitPrice(10.0, 0.15), 1e-9)
}
