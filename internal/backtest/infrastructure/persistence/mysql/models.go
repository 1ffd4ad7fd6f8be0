package mysql

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/quantengine/internal/backtest/domain"
)

// TradeModel MySQL 成交明细表映射。金额字段以 decimal 落库避免精度漂移。
type TradeModel struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"`
	TaskID       string          `gorm:"column:task_id;type:varchar(64);index;not null"`
	Symbol       string          `gorm:"column:symbol;type:varchar(20);not null"`
	Name         string          `gorm:"column:name;type:varchar(64)"`
	EntryDate    time.Time       `gorm:"column:entry_date;not null"`
	EntryPrice   decimal.Decimal `gorm:"column:entry_price;type:decimal(20,8);not null"`
	ExitDate     time.Time       `gorm:"column:exit_date;not null"`
	ExitPrice    decimal.Decimal `gorm:"column:exit_price;type:decimal(20,8);not null"`
	ExitReason   string          `gorm:"column:exit_reason;type:varchar(32);not null"`
	Pnl          decimal.Decimal `gorm:"column:pnl;type:decimal(20,8);not null"`
	PnlPct       float64         `gorm:"column:pnl_pct;not null"`
	GrossPnl     decimal.Decimal `gorm:"column:gross_pnl;type:decimal(20,8);not null"`
	GrossPnlPct  float64         `gorm:"column:gross_pnl_pct;not null"`
	CostPerShare decimal.Decimal `gorm:"column:cost_per_share;type:decimal(20,8);not null"`
	HoldingDays  int             `gorm:"column:holding_days;not null"`
	CreatedAt    time.Time
}

func (TradeModel) TableName() string { return "backtest_trades" }

// BarModel MySQL 日线行情表映射
type BarModel struct {
	ID     uint      `gorm:"primaryKey;autoIncrement"`
	Symbol string    `gorm:"column:symbol;type:varchar(20);uniqueIndex:idx_symbol_date;not null"`
	Date   time.Time `gorm:"column:date;uniqueIndex:idx_symbol_date;not null"`
	Open   float64   `gorm:"column:open;not null"`
	High   float64   `gorm:"column:high;not null"`
	Low    float64   `gorm:"column:low;not null"`
	Close  float64   `gorm:"column:close;not null"`
	Volume float64   `gorm:"column:volume;not null"`
	Amount float64   `gorm:"column:amount;not null"`
}

func (BarModel) TableName() string { return "daily_bars" }

// --- mapping helpers ---

func toTradeModel(taskID string, t domain.Trade) TradeModel {
	return TradeModel{
		TaskID:       taskID,
		Symbol:       t.Symbol,
		Name:         t.Name,
		EntryDate:    t.EntryDate,
		EntryPrice:   decimal.NewFromFloat(t.EntryPrice),
		ExitDate:     t.ExitDate,
		ExitPrice:    decimal.NewFromFloat(t.ExitPrice),
		ExitReason:   t.ExitReason,
		Pnl:          decimal.NewFromFloat(t.Pnl),
		PnlPct:       t.PnlPct,
		GrossPnl:     decimal.NewFromFloat(t.GrossPnl),
		GrossPnlPct:  t.GrossPnlPct,
		CostPerShare: decimal.NewFromFloat(t.CostPerShare),
		HoldingDays:  t.HoldingDays,
	}
}

func toTrade(m *TradeModel) domain.Trade {
	return domain.Trade{
		Symbol:       m.Symbol,
		Name:         m.Name,
		EntryDate:    m.EntryDate,
		EntryPrice:   m.EntryPrice.InexactFloat64(),
		ExitDate:     m.ExitDate,
		ExitPrice:    m.ExitPrice.InexactFloat64(),
		ExitReason:   m.ExitReason,
		Pnl:          m.Pnl.InexactFloat64(),
		PnlPct:       m.PnlPct,
		GrossPnl:     m.GrossPnl.InexactFloat64(),
		GrossPnlPct:  m.GrossPnlPct,
		CostPerShare: m.CostPerShare.InexactFloat64(),
		HoldingDays:  m.HoldingDays,
	}
}

func toBar(m *BarModel) domain.Bar {
	return domain.Bar{
		Symbol: m.Symbol,
		Date:   m.Date,
		Open:   m.Open,
		High:   m.High,
		Low:    m.Low,
		Close:  m.Close,
		Volume: m.Volume,
		Amount: m.Amount,
	}
}
