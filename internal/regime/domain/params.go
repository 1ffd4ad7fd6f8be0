package domain

// Parameters 自适应参数配置，按值传递，调用方不应就地修改
type Parameters struct {
	// 固定止损比例
	StopLossRatio float64 `json:"stop_loss_ratio"`
	// ATR 止损倍数
	ATRMultiplier float64 `json:"atr_multiplier"`
	// 是否启用 ATR 止损
	UseATRStop bool `json:"use_atr_stop"`

	// 成交量放大倍数阈值
	VolumeThreshold float64 `json:"volume_threshold"`
	// 价格偏离均线最大比例（超过视为追高）
	MaxPriceDeviation float64 `json:"max_price_deviation"`

	// 固定止盈比例
	TakeProfitRatio float64 `json:"take_profit_ratio"`
	// 移动止盈回落比例
	TrailingStopRatio float64 `json:"trailing_stop_ratio"`

	// 单笔仓位占总资金比例
	PositionRatio float64 `json:"position_ratio"`
	// 最大同时持仓数量
	MaxPositions int `json:"max_positions"`
}

// DefaultParameters 返回中性默认参数（盘整市）
func DefaultParameters() Parameters {
	return Parameters{
		StopLossRatio:     0.05,
		ATRMultiplier:     1.5,
		UseATRStop:        true,
		VolumeThreshold:   1.2,
		MaxPriceDeviation: 0.03,
		TakeProfitRatio:   0.15,
		TrailingStopRatio: 0.08,
		PositionRatio:     0.10,
		MaxPositions:      10,
	}
}

// ParamsFor 返回指定市场状态下的参数配置。
// 映射为静态配置，未列出的字段继承默认值。
func ParamsFor(regime Regime) Parameters {
	p := DefaultParameters()
	switch regime {
	case TrendUp:
		p.StopLossRatio = 0.07
		p.ATRMultiplier = 2.0
		p.TakeProfitRatio = 0.20
		p.TrailingStopRatio = 0.10
		p.VolumeThreshold = 1.1
		p.PositionRatio = 0.12
	case TrendDown:
		p.StopLossRatio = 0.03
		p.ATRMultiplier = 1.0
		p.TakeProfitRatio = 0.10
		p.TrailingStopRatio = 0.05
		p.VolumeThreshold = 1.5
		p.PositionRatio = 0.05
		p.MaxPositions = 5
	case HighVolatility:
		p.StopLossRatio = 0.03
		p.ATRMultiplier = 1.2
		p.TakeProfitRatio = 0.12
		p.TrailingStopRatio = 0.06
		p.VolumeThreshold = 1.4
		p.PositionRatio = 0.06
		p.MaxPositions = 8
	case LowVolatility:
		p.StopLossRatio = 0.08
		p.ATRMultiplier = 2.5
		p.TakeProfitRatio = 0.18
		p.TrailingStopRatio = 0.12
		p.VolumeThreshold = 1.1
		p.PositionRatio = 0.15
		p.MaxPositions = 12
	}
	return p
}
