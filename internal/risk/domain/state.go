// Package domain 提供回撤控制与风险预算仓位计算的核心逻辑。
package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout 持久化状态中日期字段的格式
const DateLayout = "2006-01-02"

// ControllerState 回撤控制器的持久化状态，单 JSON 文档，last-write-wins
type ControllerState struct {
	PeakCapital        float64 `json:"peak_capital"`
	CurrentCapital     float64 `json:"current_capital"`
	IsPaused           bool    `json:"is_paused"`
	PauseReason        string  `json:"pause_reason"`
	MonthStartCapital  float64 `json:"month_start_capital"`
	MonthStartDate     string  `json:"month_start_date"`
	MonthlyPausedUntil string  `json:"monthly_paused_until"`
	LastUpdate         string  `json:"last_update"`
}

// StateRepository 回撤状态的持久化接口。
// Load 在状态不存在时返回 (nil, nil)；读写失败不应中断风控评估，
// 由控制器记录日志并降级为内存默认值。
type StateRepository interface {
	Load() (*ControllerState, error)
	Save(state ControllerState) error
}

// ControlState 一次风控评估的输出快照
type ControlState struct {
	CanTrade         bool      `json:"can_trade"`
	RiskScale        float64   `json:"risk_scale"`
	MaxTotalExposure float64   `json:"max_total_exposure"`
	TotalDrawdown    float64   `json:"total_drawdown"`
	MonthlyDrawdown  float64   `json:"monthly_drawdown"`
	Reasons          []string  `json:"reasons"`
	AsOf             time.Time `json:"as_of"`
}

// Summary 生成单行可读摘要
func (s ControlState) Summary() string {
	reasonText := "无"
	if len(s.Reasons) > 0 {
		reasonText = strings.Join(s.Reasons, "；")
	}
	canTrade := "否"
	if s.CanTrade {
		canTrade = "是"
	}
	return fmt.Sprintf(
		"总回撤%.1f%%｜月度回撤%.1f%%｜风险缩放%.2f｜总仓位上限%.0f%%｜可交易: %s｜原因: %s",
		s.TotalDrawdown*100,
		s.MonthlyDrawdown*100,
		s.RiskScale,
		s.MaxTotalExposure*100,
		canTrade,
		reasonText,
	)
}
