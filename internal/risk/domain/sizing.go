package domain

import "math"

// SizingInput 仓位计算输入
type SizingInput struct {
	// Price 当前价格
	Price float64 `json:"price"`
	// StopLoss 止损价，须低于 Price
	StopLoss float64 `json:"stop_loss"`
	// TotalCapital 账户总资金
	TotalCapital float64 `json:"total_capital"`
	// RiskBudgetRatio 单笔风险预算占总资金比例
	RiskBudgetRatio float64 `json:"risk_budget_ratio"`
	// RiskScale 回撤控制器输出的风险缩放系数，<=0 视为暂停开仓
	RiskScale float64 `json:"risk_scale"`
	// MaxPositionRatio 单票市值占总资金上限
	MaxPositionRatio float64 `json:"max_position_ratio"`
	// MaxPositions 组合最大持仓数
	MaxPositions int `json:"max_positions"`
	// ADVAmount 20日平均成交额，<=0 时不做流动性约束
	ADVAmount float64 `json:"adv_amount"`
	// LiquidityLimit 单票市值占 ADV 上限
	LiquidityLimit float64 `json:"liquidity_limit"`
	// RiskContributionLimit 单票风险占组合风险预算上限
	RiskContributionLimit float64 `json:"risk_contribution_limit"`
	// RemainingCapital 剩余可用资金，nil 表示不限
	RemainingCapital *float64 `json:"remaining_capital,omitempty"`
	// MinLot 最小成交单位，默认 100
	MinLot int `json:"min_lot"`
}

// SizingResult 仓位计算结果
type SizingResult struct {
	// Shares 建议股数，MinLot 整数倍
	Shares int `json:"shares"`
	// Amount 建议市值
	Amount float64 `json:"amount"`
	// RiskBudget 本次生效的风险预算
	RiskBudget float64 `json:"risk_budget"`
	// StopDistance 止损距离
	StopDistance float64 `json:"stop_distance"`
	// Reasons 计算说明
	Reasons []string `json:"reasons"`
}

func (in *SizingInput) applyDefaults() {
	if in.MaxPositionRatio <= 0 {
		in.MaxPositionRatio = 0.40
	}
	if in.MaxPositions <= 0 {
		in.MaxPositions = 10
	}
	if in.LiquidityLimit <= 0 {
		in.LiquidityLimit = 0.05
	}
	if in.RiskContributionLimit <= 0 {
		in.RiskContributionLimit = 0.25
	}
	if in.MinLot <= 0 {
		in.MinLot = 100
	}
}

// CalculatePositionSize 风险预算仓位计算。
// 依次施加风险预算、单票市值上限、剩余资金、流动性四重约束，
// 结果向下取整到最小成交单位。
func CalculatePositionSize(in SizingInput) SizingResult {
	in.applyDefaults()

	if in.RiskScale <= 0 {
		return SizingResult{Reasons: []string{"风险缩放为0，暂停开仓"}}
	}

	stopDistance := in.Price - in.StopLoss
	if stopDistance <= 0 {
		return SizingResult{StopDistance: stopDistance, Reasons: []string{"止损价异常，跳过"}}
	}

	baseRiskBudget := in.TotalCapital * in.RiskBudgetRatio
	portfolioRiskBudget := in.TotalCapital * in.RiskBudgetRatio * float64(in.MaxPositions)
	maxSingleRisk := portfolioRiskBudget * in.RiskContributionLimit
	riskBudget := math.Min(baseRiskBudget, maxSingleRisk) * in.RiskScale

	if riskBudget <= 0 {
		return SizingResult{StopDistance: stopDistance, Reasons: []string{"风险预算不足"}}
	}

	minLot := float64(in.MinLot)
	sharesByRisk := int(riskBudget/stopDistance/minLot) * in.MinLot

	maxValue := in.TotalCapital * in.MaxPositionRatio
	if in.RemainingCapital != nil {
		maxValue = math.Min(maxValue, *in.RemainingCapital)
		if maxValue <= 0 {
			return SizingResult{
				RiskBudget:   riskBudget,
				StopDistance: stopDistance,
				Reasons:      []string{"仓位额度已用尽"},
			}
		}
	}

	if in.ADVAmount > 0 {
		maxValue = math.Min(maxValue, in.ADVAmount*in.LiquidityLimit)
	}

	maxSharesByValue := int(maxValue/in.Price/minLot) * in.MinLot
	shares := sharesByRisk
	if maxSharesByValue < shares {
		shares = maxSharesByValue
	}

	if shares < in.MinLot {
		return SizingResult{
			RiskBudget:   riskBudget,
			StopDistance: stopDistance,
			Reasons:      []string{"建议仓位低于最小成交单位"},
		}
	}

	return SizingResult{
		Shares:       shares,
		Amount:       float64(shares) * in.Price,
		RiskBudget:   riskBudget,
		StopDistance: stopDistance,
		Reasons:      []string{},
	}
}

// EstimateADV 估算近 window 日平均成交额。
// 优先使用成交额序列，其次用成交量乘以现价估算；无有效数据返回 0。
func EstimateADV(amounts, volumes []float64, price float64, window int) float64 {
	if window <= 0 {
		window = 20
	}
	if avg := tailMean(amounts, window); avg > 0 {
		return avg
	}
	if avg := tailMean(volumes, window); avg > 0 {
		return avg * price
	}
	return 0
}

func tailMean(values []float64, window int) float64 {
	if len(values) == 0 {
		return 0
	}
	start := len(values) - window
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, v := range values[start:] {
		sum += v
	}
	return sum / float64(len(values)-start)
}
