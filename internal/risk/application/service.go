package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/quantengine/internal/risk/domain"
	"github.com/wyfcoding/quantengine/pkg/metrics"
	"github.com/wyfcoding/quantengine/pkg/mq"
)

// TopicRiskStateChanged 风控状态变更事件主题
const TopicRiskStateChanged = "quant.risk.state_changed"

// EquitySnapshot 账户净值快照
type EquitySnapshot struct {
	Equity float64   `json:"equity"`
	AsOf   time.Time `json:"as_of"`
}

// SizingRequest 仓位计算请求。
// 未显式给出 ADVAmount 时用 Amounts/Volumes 序列估算。
type SizingRequest struct {
	domain.SizingInput
	Amounts   []float64 `json:"amounts,omitempty"`
	Volumes   []float64 `json:"volumes,omitempty"`
	ADVWindow int       `json:"adv_window,omitempty"`
}

// StatusView 风控状态查询结果
type StatusView struct {
	CanTrade bool                   `json:"can_trade"`
	Reason   string                 `json:"reason"`
	State    domain.ControllerState `json:"state"`
}

// RiskService 风控应用服务。
// 封装回撤控制器与仓位计算，负责指标上报与状态变更事件发布。
type RiskService struct {
	controller *domain.DrawdownController
	producer   *mq.KafkaProducer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewRiskService 创建风控应用服务。producer 与 m 允许为 nil（离线模式）。
func NewRiskService(controller *domain.DrawdownController, producer *mq.KafkaProducer, m *metrics.Metrics, logger *slog.Logger) *RiskService {
	return &RiskService{
		controller: controller,
		producer:   producer,
		metrics:    m,
		logger:     logger,
	}
}

// Evaluate 以最新净值快照评估风控状态。
// snapshot 为 nil 时回撤控制不生效，返回放行状态并附带说明。
func (s *RiskService) Evaluate(ctx context.Context, snapshot *EquitySnapshot) domain.ControlState {
	if snapshot == nil {
		return domain.ControlState{
			CanTrade:         true,
			RiskScale:        1.0,
			MaxTotalExposure: 1.0,
			Reasons:          []string{"未提供账户净值，回撤控制未启用"},
			AsOf:             time.Now(),
		}
	}

	asOf := snapshot.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	state := s.controller.Evaluate(snapshot.Equity, asOf)

	if s.metrics != nil {
		s.metrics.RiskEvaluationsTotal.Inc()
		if state.CanTrade {
			s.metrics.TradingPaused.Set(0)
		} else {
			s.metrics.TradingPaused.Set(1)
		}
	}

	s.logger.InfoContext(ctx, "risk state evaluated",
		"equity", snapshot.Equity,
		"can_trade", state.CanTrade,
		"total_drawdown", state.TotalDrawdown,
		"monthly_drawdown", state.MonthlyDrawdown,
	)

	s.publishState(ctx, state)
	return state
}

// Status 返回当前风控状态
func (s *RiskService) Status() StatusView {
	canTrade, reason := s.controller.CanTrade()
	return StatusView{
		CanTrade: canTrade,
		Reason:   reason,
		State:    s.controller.State(),
	}
}

// CalculateSize 执行仓位计算，必要时先估算 ADV
func (s *RiskService) CalculateSize(ctx context.Context, req SizingRequest) domain.SizingResult {
	if req.ADVAmount <= 0 && (len(req.Amounts) > 0 || len(req.Volumes) > 0) {
		req.ADVAmount = domain.EstimateADV(req.Amounts, req.Volumes, req.Price, req.ADVWindow)
	}

	result := domain.CalculatePositionSize(req.SizingInput)

	if s.metrics != nil {
		s.metrics.SizingRequestsTotal.Inc()
	}
	s.logger.DebugContext(ctx, "position size calculated",
		"price", req.Price,
		"shares", result.Shares,
		"amount", result.Amount,
	)
	return result
}

// ForceResume 人工恢复交易并发布状态事件
func (s *RiskService) ForceResume(ctx context.Context) StatusView {
	s.controller.ForceResume()
	if s.metrics != nil {
		s.metrics.TradingPaused.Set(0)
	}
	s.logger.InfoContext(ctx, "trading force-resumed by operator")
	return s.Status()
}

// Reset 重置回撤控制器
func (s *RiskService) Reset(ctx context.Context, capital float64) StatusView {
	s.controller.Reset(capital)
	if s.metrics != nil {
		s.metrics.TradingPaused.Set(0)
	}
	s.logger.InfoContext(ctx, "drawdown controller reset", "capital", capital)
	return s.Status()
}

func (s *RiskService) publishState(ctx context.Context, state domain.ControlState) {
	if s.producer == nil {
		return
	}
	if err := s.producer.SendMessage(ctx, TopicRiskStateChanged, "drawdown", state); err != nil {
		s.logger.WarnContext(ctx, "failed to publish risk state event", "error", err)
	}
}
