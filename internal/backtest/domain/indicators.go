package domain

import "math"

// MAPeriod 入场判定使用的短期均线周期
const MAPeriod = 20

// atrPeriod 真实波幅均值的计算周期
const atrPeriod = 14

// MovingAverage 计算收盘价滚动均线，窗口不足的位置为 NaN
func MovingAverage(bars []Bar, period int) []float64 {
	ma := make([]float64, len(bars))
	sum := 0.0
	for i := range bars {
		sum += bars[i].Close
		if i >= period {
			sum -= bars[i-period].Close
		}
		if i >= period-1 {
			ma[i] = sum / float64(period)
		} else {
			ma[i] = math.NaN()
		}
	}
	return ma
}

// ATR 计算平均真实波幅的最新值，数据不足时返回 0
func ATR(bars []Bar, period int) float64 {
	if len(bars) < period+1 {
		return 0.0
	}

	// 真实波幅取以下三者最大值：当日高低差、高与前收差、低与前收差
	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		highLow := bars[i].High - bars[i].Low
		highClose := math.Abs(bars[i].High - bars[i-1].Close)
		lowClose := math.Abs(bars[i].Low - bars[i-1].Close)
		tr := math.Max(highLow, math.Max(highClose, lowClose))
		sum += tr
	}
	return sum / float64(period)
}

// StopLossPrice 计算止损价。
// 取固定止损（买入价 × (1-比例)）、均线止损（MA20 × 0.99）与
// ATR 止损（买入价 − N 倍 ATR）三者的较高值，即更严格的止损。
func StopLossPrice(buyPrice, ma20 float64, bars []Bar, atrMultiplier, stopLossRatio float64) float64 {
	fixedStop := buyPrice * (1 - stopLossRatio)
	maStop := ma20 * 0.99

	if len(bars) > 0 {
		atr := ATR(bars, atrPeriod)
		if atr > 0 {
			atrStop := buyPrice - atrMultiplier*atr
			return math.Max(fixedStop, math.Max(maStop, atrStop))
		}
	}

	return math.Max(fixedStop, maStop)
}

// TakeProfitPrice 计算止盈价
func TakeProfitPrice(buyPrice, takeProfitRatio float64) float64 {
	return buyPrice * (1 + takeProfitRatio)
}
