package domain

import (
	"math"
	"time"

	regimedomain "github.com/wyfcoding/quantengine/internal/regime/domain"
)

// positionState 模拟器的持仓状态
type positionState int

const (
	stateFlat positionState = iota
	stateLong
	statePendingExit
)

// minExtraBars 均线周期之外额外要求的历史长度
const minExtraBars = 30

// trailingArmThreshold 移动止盈的启用门槛：最高价超过买入价 10%
const trailingArmThreshold = 1.10

// pendingExit 因跌停无法卖出而挂起的退出请求
type pendingExit struct {
	reason     string
	entryPrice float64
	entryDate  time.Time
}

// Simulator 单标的交易模拟器。
// 对 (K 线序列, 参数, 成本模型) 而言是纯函数，各标的之间不共享可变状态。
type Simulator struct {
	Params regimedomain.Parameters
	Cost   *CostModel
	// UseTrailingStop 是否启用移动止盈
	UseTrailingStop bool
	// Shares 模拟交易股数
	Shares int64
}

// NewSimulator 创建模拟器，默认启用移动止盈并以 1000 股模拟
func NewSimulator(params regimedomain.Parameters, cost *CostModel) *Simulator {
	return &Simulator{
		Params:          params,
		Cost:            cost,
		UseTrailingStop: true,
		Shares:          1000,
	}
}

// Run 按时间顺序逐根 K 线驱动状态机，返回全部已平仓交易。
// 历史长度不足（少于均线周期+30）时返回空列表，不报错。
func (s *Simulator) Run(symbol, name string, bars []Bar) []Trade {
	var trades []Trade

	if len(bars) < MAPeriod+minExtraBars {
		return trades
	}

	ma20 := MovingAverage(bars, MAPeriod)

	state := stateFlat
	var entryPrice float64
	var entryDate time.Time
	var stopLoss, takeProfit, highestSinceEntry float64
	var pending *pendingExit

	for i := MAPeriod + 1; i < len(bars); i++ {
		current := bars[i]
		prev := bars[i-1]

		// 前一日跌停卖不出，今日开盘成交（保守假设开盘即能卖出）
		if state == statePendingExit && pending != nil {
			exitPrice := current.Open
			trades = append(trades, s.closeTrade(
				symbol, name,
				pending.entryPrice, pending.entryDate,
				exitPrice, current.Date,
				pending.reason+DeferredFillSuffix,
			))
			state = stateFlat
			pending = nil
			continue
		}

		if state == stateFlat {
			// 开盘已涨停则无法买入
			if IsLimitUp(symbol, current.Open, prev.Close) {
				continue
			}
			if math.IsNaN(ma20[i]) {
				continue
			}

			priceAboveMA := current.Close > ma20[i]
			volumeIncrease := current.Volume > prev.Volume*s.Params.VolumeThreshold
			priceNotTooHigh := current.Close <= ma20[i]*(1+s.Params.MaxPriceDeviation)

			if priceAboveMA && volumeIncrease && priceNotTooHigh {
				state = stateLong
				entryPrice = current.Close
				entryDate = current.Date
				stopLoss = StopLossPrice(entryPrice, ma20[i], bars[:i+1], s.Params.ATRMultiplier, s.Params.StopLossRatio)
				takeProfit = TakeProfitPrice(entryPrice, s.Params.TakeProfitRatio)
				highestSinceEntry = entryPrice
			}
			continue
		}

		// 持仓簿记：刷新入场以来最高价
		if current.Close > highestSinceEntry {
			highestSinceEntry = current.Close
		}

		exitReason := ""
		exitPrice := current.Close

		switch {
		case current.Close <= stopLoss || current.Low <= stopLoss:
			// 止损：按当日振幅放大滑点
			exitReason = ExitReasonStopLoss
			volatility := 0.02
			if current.Open > 0 {
				volatility = (current.High - current.Low) / current.Open
			}
			slippage := 0.005 + volatility*0.1

			if current.Open <= stopLoss {
				// 低开在止损线下，以开盘价成交
				exitPrice = current.Open * (1 - slippage)
			} else {
				exitPrice = stopLoss * (1 - slippage)
			}
			// 极端情况下卖出价不低于当日最低价
			exitPrice = math.Max(exitPrice, current.Low)

		case current.Close >= takeProfit:
			exitReason = ExitReasonTakeProfit
			exitPrice = takeProfit

		case s.UseTrailingStop && highestSinceEntry > entryPrice*trailingArmThreshold:
			trailingStop := highestSinceEntry * (1 - s.Params.TrailingStopRatio)
			if current.Close <= trailingStop {
				exitReason = ExitReasonTrailingStop
				exitPrice = trailingStop
			}
		}

		if exitReason == "" {
			continue
		}

		if IsLimitDown(symbol, current.Close, prev.Close) {
			// 封死跌停，无法卖出，挂起至下一交易日
			pending = &pendingExit{
				reason:     exitReason,
				entryPrice: entryPrice,
				entryDate:  entryDate,
			}
			state = statePendingExit
			continue
		}

		trades = append(trades, s.closeTrade(symbol, name, entryPrice, entryDate, exitPrice, current.Date, exitReason))
		state = stateFlat
		entryPrice = 0
		highestSinceEntry = 0
	}

	return trades
}

// closeTrade 生成一笔已平仓交易，应用成本模型将毛收益折算为实际收益
func (s *Simulator) closeTrade(symbol, name string, entryPrice float64, entryDate time.Time, exitPrice float64, exitDate time.Time, reason string) Trade {
	grossPnl := exitPrice - entryPrice
	grossPnlPct := 0.0
	if entryPrice > 0 {
		grossPnlPct = grossPnl / entryPrice
	}

	pnl := grossPnl
	pnlPct := grossPnlPct
	costPerShare := 0.0

	if s.Cost != nil && s.Shares > 0 {
		breakdown := s.Cost.RoundTrip(entryPrice, exitPrice, s.Shares)
		shares := float64(s.Shares)
		pnl = breakdown.ActualProfit.InexactFloat64() / shares
		pnlPct = breakdown.ActualReturnPct.InexactFloat64() / 100
		costPerShare = breakdown.TotalCost.InexactFloat64() / shares
	}

	return Trade{
		Symbol:       symbol,
		Name:         name,
		EntryDate:    entryDate,
		EntryPrice:   entryPrice,
		ExitDate:     exitDate,
		ExitPrice:    exitPrice,
		ExitReason:   reason,
		Pnl:          pnl,
		PnlPct:       pnlPct,
		GrossPnl:     grossPnl,
		GrossPnlPct:  grossPnlPct,
		CostPerShare: costPerShare,
		HoldingDays:  int(exitDate.Sub(entryDate).Hours() / 24),
	}
}
