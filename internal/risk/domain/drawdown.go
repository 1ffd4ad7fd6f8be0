package domain

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DrawdownConfig 回撤控制阈值配置。所有阈值均为显式参数，不读取全局变量。
type DrawdownConfig struct {
	// MaxDrawdown 总回撤硬线，触及后禁止交易
	MaxDrawdown float64 `mapstructure:"max_drawdown"`
	// InitialCapital 初始资金
	InitialCapital float64 `mapstructure:"initial_capital"`

	// ReduceLevel1/2 总回撤降仓线
	ReduceLevel1 float64 `mapstructure:"reduce_level_1"`
	ReduceLevel2 float64 `mapstructure:"reduce_level_2"`
	// ReduceTargetL1/L2 触发降仓线后的总仓位上限
	ReduceTargetL1 float64 `mapstructure:"reduce_target_l1"`
	ReduceTargetL2 float64 `mapstructure:"reduce_target_l2"`

	// MonthlySoft 月度回撤软线，触发风险缩放
	MonthlySoft float64 `mapstructure:"monthly_soft"`
	// MonthlyHard 月度回撤硬线，触发冷却期
	MonthlyHard float64 `mapstructure:"monthly_hard"`
	// MonthlyRiskScale 软线触发后的风险缩放系数
	MonthlyRiskScale float64 `mapstructure:"monthly_risk_scale"`
	// MonthlyCooldownDays 硬线触发后的冷却天数
	MonthlyCooldownDays int `mapstructure:"monthly_cooldown_days"`
}

// DefaultDrawdownConfig 返回默认阈值
func DefaultDrawdownConfig() DrawdownConfig {
	return DrawdownConfig{
		MaxDrawdown:         0.20,
		InitialCapital:      100000,
		ReduceLevel1:        0.12,
		ReduceLevel2:        0.16,
		ReduceTargetL1:      0.60,
		ReduceTargetL2:      0.30,
		MonthlySoft:         0.08,
		MonthlyHard:         0.12,
		MonthlyRiskScale:    0.50,
		MonthlyCooldownDays: 5,
	}
}

// DrawdownController 回撤控制器。
// 跟踪资金峰值、计算总/月度回撤并输出分级风控决策；
// 内部状态经由 StateRepository 跨进程持久化，假定单写者。
type DrawdownController struct {
	cfg    DrawdownConfig
	repo   StateRepository
	logger *slog.Logger

	mu    sync.Mutex
	state ControllerState
}

// NewDrawdownController 创建控制器并加载持久化状态。
// 状态缺失或损坏时记录日志并回退到默认状态，不报错。
func NewDrawdownController(cfg DrawdownConfig, repo StateRepository, logger *slog.Logger) *DrawdownController {
	c := &DrawdownController{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
		state:  defaultState(cfg.InitialCapital),
	}

	if repo != nil {
		loaded, err := repo.Load()
		if err != nil {
			logger.Warn("failed to load drawdown state, using defaults", "error", err)
		} else if loaded != nil {
			c.state = *loaded
		}
	}

	return c
}

func defaultState(initialCapital float64) ControllerState {
	return ControllerState{
		PeakCapital:       initialCapital,
		CurrentCapital:    initialCapital,
		MonthStartCapital: initialCapital,
	}
}

// State 返回当前持久化状态的副本
func (c *DrawdownController) State() ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TotalDrawdown 当前总回撤比例
func (c *DrawdownController) TotalDrawdown() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totalDrawdown(c.state)
}

// MonthlyDrawdown 当前月度回撤比例
func (c *DrawdownController) MonthlyDrawdown() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return monthlyDrawdown(c.state)
}

func totalDrawdown(s ControllerState) float64 {
	if s.PeakCapital <= 0 {
		return 0.0
	}
	dd := (s.PeakCapital - s.CurrentCapital) / s.PeakCapital
	if dd < 0 {
		return 0.0
	}
	return dd
}

func monthlyDrawdown(s ControllerState) float64 {
	if s.MonthStartCapital <= 0 {
		return 0.0
	}
	dd := (s.MonthStartCapital - s.CurrentCapital) / s.MonthStartCapital
	if dd < 0 {
		return 0.0
	}
	return dd
}

// Evaluate 以最新资金净值更新状态并输出风控决策。
// 峰值单调不减；资金创新高时清除暂停状态；跨自然月时重置月度基准。
func (c *DrawdownController) Evaluate(currentEquity float64, asOf time.Time) ControlState {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.CurrentCapital = currentEquity
	c.maybeResetMonth(asOf)

	if currentEquity > c.state.PeakCapital {
		c.state.PeakCapital = currentEquity
		if c.state.IsPaused {
			c.state.IsPaused = false
			c.state.PauseReason = ""
			c.logger.Info("equity reached new peak, trading resumed")
		}
	}

	totalDD := totalDrawdown(c.state)
	monthlyDD := monthlyDrawdown(c.state)

	canTrade := true
	riskScale := 1.0
	maxTotalExposure := 1.0
	var reasons []string

	// 总回撤分级
	switch {
	case totalDD >= c.cfg.MaxDrawdown:
		canTrade = false
		maxTotalExposure = 0.0
		reasons = append(reasons, fmt.Sprintf("总回撤%.1f%%超过硬线%.0f%%", totalDD*100, c.cfg.MaxDrawdown*100))
	case totalDD >= c.cfg.ReduceLevel2:
		maxTotalExposure = c.cfg.ReduceTargetL2
		reasons = append(reasons, fmt.Sprintf("总回撤%.1f%%触发降仓线2", totalDD*100))
	case totalDD >= c.cfg.ReduceLevel1:
		maxTotalExposure = c.cfg.ReduceTargetL1
		reasons = append(reasons, fmt.Sprintf("总回撤%.1f%%触发降仓线1", totalDD*100))
	}

	// 月度回撤软硬线
	if monthlyDD >= c.cfg.MonthlySoft {
		if c.cfg.MonthlyRiskScale < riskScale {
			riskScale = c.cfg.MonthlyRiskScale
		}
		reasons = append(reasons, fmt.Sprintf("月度回撤%.1f%%触发软线", monthlyDD*100))
	}

	if monthlyDD >= c.cfg.MonthlyHard {
		canTrade = false
		pauseUntil := asOf.AddDate(0, 0, c.cfg.MonthlyCooldownDays)
		c.state.MonthlyPausedUntil = pauseUntil.Format(DateLayout)
		reasons = append(reasons, fmt.Sprintf("月度回撤%.1f%%触发硬线", monthlyDD*100))
	}

	// 冷却期内即使回撤改善也保持禁止交易
	if c.monthlyPauseActive(asOf) {
		canTrade = false
		reasons = append(reasons, fmt.Sprintf("月度冷却中至%s", c.state.MonthlyPausedUntil))
	}

	c.state.IsPaused = !canTrade
	if canTrade {
		c.state.PauseReason = ""
	} else {
		c.state.PauseReason = strings.Join(reasons, "；")
	}
	c.state.LastUpdate = asOf.Format(time.DateTime)

	if c.repo != nil {
		if err := c.repo.Save(c.state); err != nil {
			c.logger.Warn("failed to save drawdown state", "error", err)
		}
	}

	return ControlState{
		CanTrade:         canTrade,
		RiskScale:        riskScale,
		MaxTotalExposure: maxTotalExposure,
		TotalDrawdown:    totalDD,
		MonthlyDrawdown:  monthlyDD,
		Reasons:          reasons,
		AsOf:             asOf,
	}
}

// CanTrade 检查当前是否允许交易
func (c *DrawdownController) CanTrade() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.IsPaused {
		return false, "交易暂停: " + c.state.PauseReason
	}
	return true, "可以交易"
}

// ForceResume 强制恢复交易（人工干预）
func (c *DrawdownController) ForceResume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsPaused = false
	c.state.PauseReason = ""
	c.state.MonthlyPausedUntil = ""
	c.persistLocked()
	c.logger.Info("trading force-resumed")
}

// Reset 重置控制器状态。newCapital 大于 0 时以其作为新的初始资金。
func (c *DrawdownController) Reset(newCapital float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	capital := c.cfg.InitialCapital
	if newCapital > 0 {
		capital = newCapital
		c.cfg.InitialCapital = newCapital
	}
	c.state = defaultState(capital)
	c.persistLocked()
	c.logger.Info("drawdown controller reset", "initial_capital", capital)
}

func (c *DrawdownController) persistLocked() {
	if c.repo == nil {
		return
	}
	if err := c.repo.Save(c.state); err != nil {
		c.logger.Warn("failed to save drawdown state", "error", err)
	}
}

// maybeResetMonth 跨自然月时以当前资金重置月度基准
func (c *DrawdownController) maybeResetMonth(asOf time.Time) {
	if c.state.MonthStartDate == "" {
		c.state.MonthStartDate = asOf.Format(DateLayout)
		c.state.MonthStartCapital = c.state.CurrentCapital
		return
	}

	monthStart, err := time.Parse(DateLayout, c.state.MonthStartDate)
	if err != nil {
		monthStart = asOf
	}

	if monthStart.Year() != asOf.Year() || monthStart.Month() != asOf.Month() {
		c.state.MonthStartDate = asOf.Format(DateLayout)
		c.state.MonthStartCapital = c.state.CurrentCapital
	}
}

// monthlyPauseActive 判断月度冷却期是否仍然生效
func (c *DrawdownController) monthlyPauseActive(asOf time.Time) bool {
	if c.state.MonthlyPausedUntil == "" {
		return false
	}
	pauseUntil, err := time.Parse(DateLayout, c.state.MonthlyPausedUntil)
	if err != nil {
		return false
	}
	y1, m1, d1 := asOf.Date()
	y2, m2, d2 := pauseUntil.Date()
	today := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	until := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return !today.After(until)
}
