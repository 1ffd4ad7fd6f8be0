package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wyfcoding/quantengine/internal/backtest/domain"
	regimeapp "github.com/wyfcoding/quantengine/internal/regime/application"
	regimedomain "github.com/wyfcoding/quantengine/internal/regime/domain"
	"github.com/wyfcoding/quantengine/pkg/metrics"
	"github.com/wyfcoding/quantengine/pkg/mq"
)

// TopicBacktestCompleted 回测完成事件主题
const TopicBacktestCompleted = "quant.backtest.completed"

// Config 回测服务配置
type Config struct {
	// IndexCode 状态识别使用的指数代码
	IndexCode string `mapstructure:"index_code"`
	// BenchmarkCode 风格漂移的基准指数代码
	BenchmarkCode string `mapstructure:"benchmark_code"`
	// Options 回测执行默认选项
	Options domain.EngineOptions `mapstructure:"options"`
}

// SubmitRequest 提交回测请求
type SubmitRequest struct {
	Universe []domain.Instrument `json:"universe" binding:"required"`
	// HistoryDays 覆盖默认的历史回看天数，0 表示使用默认值
	HistoryDays int `json:"history_days"`
	// Shares 覆盖默认的模拟股数，0 表示使用默认值
	Shares int64 `json:"shares"`
}

// CompletedEvent 回测完成事件
type CompletedEvent struct {
	TaskID  string               `json:"task_id"`
	Regime  string               `json:"regime"`
	Metrics domain.ResultMetrics `json:"metrics"`
}

// BacktestService 回测应用服务。
// 负责任务生命周期管理：接收提交、异步执行、落库报告、发布完成事件。
type BacktestService struct {
	repo     domain.Repository
	bars     domain.BarRepository
	engine   *domain.Engine
	strategy *regimeapp.AdaptiveStrategy
	producer *mq.KafkaProducer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	config   Config
}

// NewBacktestService 创建回测应用服务。producer 与 m 允许为 nil。
func NewBacktestService(
	repo domain.Repository,
	bars domain.BarRepository,
	engine *domain.Engine,
	strategy *regimeapp.AdaptiveStrategy,
	producer *mq.KafkaProducer,
	m *metrics.Metrics,
	logger *slog.Logger,
	config Config,
) *BacktestService {
	if config.Options == (domain.EngineOptions{}) {
		config.Options = domain.DefaultEngineOptions()
	}
	return &BacktestService{
		repo:     repo,
		bars:     bars,
		engine:   engine,
		strategy: strategy,
		producer: producer,
		metrics:  m,
		logger:   logger,
		config:   config,
	}
}

// Submit 创建回测任务并异步执行，立即返回 PENDING 状态的任务
func (s *BacktestService) Submit(ctx context.Context, req SubmitRequest) (*domain.Task, error) {
	if len(req.Universe) == 0 {
		return nil, fmt.Errorf("universe must not be empty")
	}

	universeJSON, err := json.Marshal(req.Universe)
	if err != nil {
		return nil, fmt.Errorf("marshal universe: %w", err)
	}

	task := &domain.Task{
		TaskID:      uuid.New().String(),
		Universe:    string(universeJSON),
		SymbolCount: len(req.Universe),
		Status:      domain.TaskStatusPending,
	}
	if err := s.repo.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}

	opts := s.config.Options
	if req.HistoryDays > 0 {
		opts.HistoryDays = req.HistoryDays
	}
	if req.Shares > 0 {
		opts.Shares = req.Shares
	}

	// 执行与提交请求解耦，不继承 HTTP 请求的生命周期
	go s.run(context.Background(), task, req.Universe, opts)

	s.logger.InfoContext(ctx, "backtest task submitted",
		"task_id", task.TaskID,
		"symbols", task.SymbolCount,
	)
	return task, nil
}

// GetTask 查询任务
func (s *BacktestService) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.repo.FindTaskByID(ctx, taskID)
}

// GetReport 查询报告
func (s *BacktestService) GetReport(ctx context.Context, taskID string) (*domain.Report, error) {
	return s.repo.FindReportByTaskID(ctx, taskID)
}

// GetTrades 查询成交明细
func (s *BacktestService) GetTrades(ctx context.Context, taskID string) ([]domain.Trade, error) {
	return s.repo.FindTradesByTaskID(ctx, taskID)
}

// RegimeView 当前市场状态与参数
type RegimeView struct {
	Regime     string                  `json:"regime"`
	Parameters regimedomain.Parameters `json:"parameters"`
}

// CurrentRegime 返回最近一次识别的市场状态与参数
func (s *BacktestService) CurrentRegime() RegimeView {
	return RegimeView{
		Regime:     string(s.strategy.CurrentRegime()),
		Parameters: s.strategy.CurrentParams(),
	}
}

// RegimeHistory 返回状态识别历史
func (s *BacktestService) RegimeHistory() []regimeapp.RegimeSnapshot {
	return s.strategy.History()
}

func (s *BacktestService) run(ctx context.Context, task *domain.Task, universe []domain.Instrument, opts domain.EngineOptions) {
	start := time.Now()

	task.Status = domain.TaskStatusRunning
	if err := s.repo.SaveTask(ctx, task); err != nil {
		s.logger.Error("failed to mark task running", "task_id", task.TaskID, "error", err)
	}

	// 整批回测共用一次状态识别的参数
	params, regime := s.resolveParams(ctx, opts.HistoryDays)
	task.Regime = regime

	result := s.engine.Run(ctx, universe, params, opts)
	trades := result.Trades()
	resultMetrics := result.Metrics()

	if s.metrics != nil {
		s.metrics.BacktestsTotal.Inc()
		s.metrics.BacktestDuration.Observe(time.Since(start).Seconds())
		s.metrics.TradesSimulated.Add(float64(len(trades)))
		s.metrics.SymbolsSkipped.Add(float64(result.Skipped()))
	}

	if err := s.persistResult(ctx, task, trades, resultMetrics); err != nil {
		task.Status = domain.TaskStatusFailed
		task.Error = err.Error()
		if saveErr := s.repo.SaveTask(ctx, task); saveErr != nil {
			s.logger.Error("failed to mark task failed", "task_id", task.TaskID, "error", saveErr)
		}
		s.logger.Error("backtest task failed", "task_id", task.TaskID, "error", err)
		return
	}

	task.Status = domain.TaskStatusCompleted
	if err := s.repo.SaveTask(ctx, task); err != nil {
		s.logger.Error("failed to mark task completed", "task_id", task.TaskID, "error", err)
	}

	s.publishCompleted(ctx, task, resultMetrics)

	s.logger.Info("backtest task completed",
		"task_id", task.TaskID,
		"regime", regime,
		"trades", resultMetrics.TotalTrades,
		"win_rate", resultMetrics.WinRate,
		"duration", time.Since(start).String(),
	)
}

// resolveParams 基于指数与基准序列识别市场状态并给出参数。
// 行情缺失时退回当前参数，不中断回测。
func (s *BacktestService) resolveParams(ctx context.Context, historyDays int) (regimedomain.Parameters, string) {
	indexBars, err := s.bars.GetIndexBars(ctx, s.config.IndexCode, historyDays)
	if err != nil || len(indexBars) == 0 {
		s.logger.Warn("index bars unavailable, keeping current parameters",
			"index", s.config.IndexCode, "error", err)
		return s.strategy.CurrentParams(), string(s.strategy.CurrentRegime())
	}

	benchmarkBars, err := s.bars.GetIndexBars(ctx, s.config.BenchmarkCode, historyDays)
	if err != nil {
		s.logger.Warn("benchmark bars unavailable, style drift disabled",
			"benchmark", s.config.BenchmarkCode, "error", err)
		benchmarkBars = nil
	}

	detected, _ := s.strategy.UpdateRegime(closes(indexBars), closes(benchmarkBars))
	return s.strategy.CurrentParams(), string(detected)
}

func (s *BacktestService) persistResult(ctx context.Context, task *domain.Task, trades []domain.Trade, m domain.ResultMetrics) error {
	if err := s.repo.SaveTrades(ctx, task.TaskID, trades); err != nil {
		return fmt.Errorf("save trades: %w", err)
	}

	report := &domain.Report{
		TaskID:       task.TaskID,
		TotalTrades:  m.TotalTrades,
		WinRate:      m.WinRate,
		ProfitFactor: m.ProfitFactor,
		MaxDrawdown:  m.MaxDrawdown,
		SharpeRatio:  m.SharpeRatio,
		TotalReturn:  m.TotalReturn,
	}
	if err := s.repo.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *BacktestService) publishCompleted(ctx context.Context, task *domain.Task, m domain.ResultMetrics) {
	if s.producer == nil {
		return
	}
	event := CompletedEvent{
		TaskID:  task.TaskID,
		Regime:  task.Regime,
		Metrics: m,
	}
	if err := s.producer.SendMessage(ctx, TopicBacktestCompleted, task.TaskID, event); err != nil {
		s.logger.Warn("failed to publish backtest completed event", "task_id", task.TaskID, "error", err)
	}
}

func closes(bars []domain.Bar) []float64 {
	if len(bars) == 0 {
		return nil
	}
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
