package domain

import (
	"context"
	"time"
)

// 回测任务状态
const (
	TaskStatusPending   = "PENDING"
	TaskStatusRunning   = "RUNNING"
	TaskStatusCompleted = "COMPLETED"
	TaskStatusFailed    = "FAILED"
)

// Task 表示一个回测任务
type Task struct {
	TaskID string `gorm:"primaryKey;type:varchar(64)"`
	// Universe 标的清单（JSON 数组）
	Universe    string `gorm:"type:text"`
	SymbolCount int
	// Regime 本次回测采用的市场状态
	Regime    string `gorm:"type:varchar(20)"`
	Status    string `gorm:"type:varchar(20);index"`
	Error     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Report 表示回测生成的汇总报告
type Report struct {
	TaskID       string `gorm:"primaryKey;type:varchar(64)"`
	TotalTrades  int
	WinRate      float64
	ProfitFactor float64
	MaxDrawdown  float64
	SharpeRatio  float64
	TotalReturn  float64
	CreatedAt    time.Time
}

// Repository 回测任务与结果的仓储接口
type Repository interface {
	SaveTask(ctx context.Context, task *Task) error
	FindTaskByID(ctx context.Context, taskID string) (*Task, error)
	SaveReport(ctx context.Context, report *Report) error
	FindReportByTaskID(ctx context.Context, taskID string) (*Report, error)
	SaveTrades(ctx context.Context, taskID string, trades []Trade) error
	FindTradesByTaskID(ctx context.Context, taskID string) ([]Trade, error)
}

// BarRepository 行情数据来源仓储。
// 返回的序列按日期升序；空序列表示无法模拟，不视为错误。
type BarRepository interface {
	// GetDailyBars 获取个股最近 days 个交易日的日线
	GetDailyBars(ctx context.Context, symbol string, days int) ([]Bar, error)
	// GetIndexBars 获取指数最近 days 个交易日的日线
	GetIndexBars(ctx context.Context, code string, days int) ([]Bar, error)
}
