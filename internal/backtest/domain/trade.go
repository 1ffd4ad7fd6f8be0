package domain

import "time"

// 平仓原因
const (
	ExitReasonStopLoss     = "止损"
	ExitReasonTakeProfit   = "止盈"
	ExitReasonTrailingStop = "移动止盈"

	// DeferredFillSuffix 跌停封死延迟到次日开盘成交的标记
	DeferredFillSuffix = "(延迟成交)"
)

// Trade 一笔已平仓交易，仅在模拟平仓事件时创建，此后不可变
type Trade struct {
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitDate   time.Time `json:"exit_date"`
	ExitPrice  float64   `json:"exit_price"`
	ExitReason string    `json:"exit_reason"`
	// Pnl 扣除交易成本后的每股收益
	Pnl float64 `json:"pnl"`
	// PnlPct 扣除交易成本后的收益率
	PnlPct float64 `json:"pnl_pct"`
	// GrossPnl 未扣成本的每股收益
	GrossPnl float64 `json:"gross_pnl"`
	// GrossPnlPct 未扣成本的收益率
	GrossPnlPct float64 `json:"gross_pnl_pct"`
	// CostPerShare 每股交易成本
	CostPerShare float64 `json:"cost_per_share"`
	// HoldingDays 持仓自然日天数
	HoldingDays int `json:"holding_days"`
}
