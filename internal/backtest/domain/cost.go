package domain

import (
	"github.com/shopspring/decimal"
)

// CostModel 交易成本模型。
// 佣金按成交额比例计（有最低佣金），印花税仅在卖出侧收取，
// 滑点在买卖两侧均朝不利方向调整成交价。
type CostModel struct {
	// CommissionRate 佣金比例（默认万三）
	CommissionRate decimal.Decimal
	// StampTaxRate 印花税比例（默认千一，仅卖出）
	StampTaxRate decimal.Decimal
	// SlippageRate 滑点比例（默认千一）
	SlippageRate decimal.Decimal
	// MinCommission 最低佣金（默认 5 元）
	MinCommission decimal.Decimal
}

// NewDefaultCostModel 创建默认参数的成本模型
func NewDefaultCostModel() *CostModel {
	return &CostModel{
		CommissionRate: decimal.NewFromFloat(0.0003),
		StampTaxRate:   decimal.NewFromFloat(0.001),
		SlippageRate:   decimal.NewFromFloat(0.001),
		MinCommission:  decimal.NewFromInt(5),
	}
}

// CostBreakdown 一轮完整交易的成本与收益拆解
type CostBreakdown struct {
	BuyPrice        decimal.Decimal `json:"buy_price"`
	BuyActualPrice  decimal.Decimal `json:"buy_actual_price"`
	SellPrice       decimal.Decimal `json:"sell_price"`
	SellActualPrice decimal.Decimal `json:"sell_actual_price"`
	Shares          int64           `json:"shares"`
	BuyCommission   decimal.Decimal `json:"buy_commission"`
	SellCommission  decimal.Decimal `json:"sell_commission"`
	StampTax        decimal.Decimal `json:"stamp_tax"`
	SlippageCost    decimal.Decimal `json:"slippage_cost"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`
	ActualProfit    decimal.Decimal `json:"actual_profit"`
	GrossReturnPct  decimal.Decimal `json:"gross_return_pct"`
	// ActualReturnPct 为实际利润除以买入侧总支出（含滑点的成交额+佣金），
	// 并非名义本金口径。下游消费方依赖该口径，保持不变。
	ActualReturnPct decimal.Decimal `json:"actual_return_pct"`
}

// BuyCost 计算买入侧成本，返回实际成交价、佣金与总支出
func (m *CostModel) BuyCost(price float64, shares int64) (actualPrice, commission, totalCost decimal.Decimal) {
	p := decimal.NewFromFloat(price)
	qty := decimal.NewFromInt(shares)

	// 滑点：买入时价格略高
	actualPrice = p.Mul(decimal.NewFromInt(1).Add(m.SlippageRate))
	tradeAmount := actualPrice.Mul(qty)

	commission = tradeAmount.Mul(m.CommissionRate)
	if commission.LessThan(m.MinCommission) {
		commission = m.MinCommission
	}

	totalCost = tradeAmount.Add(commission)
	return actualPrice, commission, totalCost
}

// SellCost 计算卖出侧成本，返回实际成交价、佣金、印花税与净收入
func (m *CostModel) SellCost(price float64, shares int64) (actualPrice, commission, stamp, netIncome decimal.Decimal) {
	p := decimal.NewFromFloat(price)
	qty := decimal.NewFromInt(shares)

	// 滑点：卖出时价格略低
	actualPrice = p.Mul(decimal.NewFromInt(1).Sub(m.SlippageRate))
	tradeAmount := actualPrice.Mul(qty)

	commission = tradeAmount.Mul(m.CommissionRate)
	if commission.LessThan(m.MinCommission) {
		commission = m.MinCommission
	}

	stamp = tradeAmount.Mul(m.StampTaxRate)
	netIncome = tradeAmount.Sub(commission).Sub(stamp)
	return actualPrice, commission, stamp, netIncome
}

// RoundTrip 计算一轮完整交易（买入后卖出）的成本与收益。
// 价格或股数非正时返回零值拆解。
func (m *CostModel) RoundTrip(buyPrice, sellPrice float64, shares int64) CostBreakdown {
	if buyPrice <= 0 || sellPrice <= 0 || shares <= 0 {
		return CostBreakdown{Shares: shares}
	}

	buyActual, buyComm, totalBuyCost := m.BuyCost(buyPrice, shares)
	sellActual, sellComm, stamp, netIncome := m.SellCost(sellPrice, shares)

	buy := decimal.NewFromFloat(buyPrice)
	sell := decimal.NewFromFloat(sellPrice)
	qty := decimal.NewFromInt(shares)

	grossProfit := sell.Sub(buy).Mul(qty)
	actualProfit := netIncome.Sub(totalBuyCost)

	slippageCost := buyActual.Sub(buy).Add(sell.Sub(sellActual)).Mul(qty)
	totalCost := buyComm.Add(sellComm).Add(stamp).Add(slippageCost)

	grossReturnPct := sell.Div(buy).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	actualReturnPct := decimal.Zero
	if !totalBuyCost.IsZero() {
		actualReturnPct = actualProfit.Div(totalBuyCost).Mul(decimal.NewFromInt(100))
	}

	return CostBreakdown{
		BuyPrice:        buy,
		BuyActualPrice:  buyActual,
		SellPrice:       sell,
		SellActualPrice: sellActual,
		Shares:          shares,
		BuyCommission:   buyComm,
		SellCommission:  sellComm,
		StampTax:        stamp,
		SlippageCost:    slippageCost,
		TotalCost:       totalCost,
		GrossProfit:     grossProfit,
		ActualProfit:    actualProfit,
		GrossReturnPct:  grossReturnPct,
		ActualReturnPct: actualReturnPct,
	}
}
