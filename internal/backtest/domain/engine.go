package domain

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	regimedomain "github.com/wyfcoding/quantengine/internal/regime/domain"
)

// Instrument 回测标的
type Instrument struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// EngineOptions 回测执行选项
type EngineOptions struct {
	// Parallel 是否允许并行回测
	Parallel bool `mapstructure:"parallel"`
	// MaxWorkers 并行 worker 数量，0 表示按 CPU 自动推导
	MaxWorkers int `mapstructure:"max_workers"`
	// ParallelThreshold 标的数量超过该阈值时才并行
	ParallelThreshold int `mapstructure:"parallel_threshold"`
	// HistoryDays 每只标的拉取的历史天数
	HistoryDays int `mapstructure:"history_days"`
	// Shares 模拟交易股数
	Shares int64 `mapstructure:"shares"`
	// UseTrailingStop 是否启用移动止盈
	UseTrailingStop bool `mapstructure:"use_trailing_stop"`
}

// DefaultEngineOptions 返回默认执行选项
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		Parallel:          true,
		ParallelThreshold: 10,
		HistoryDays:       365,
		Shares:            1000,
		UseTrailingStop:   true,
	}
}

// maxEngineWorkers 并行 worker 数量上限
const maxEngineWorkers = 8

// Engine 回测编排器：将模拟器扇出到标的清单并聚合结果。
// 单个标的的失败被隔离并跳过，不影响整批回测。
type Engine struct {
	bars   BarRepository
	cost   *CostModel
	logger *slog.Logger
}

// NewEngine 创建回测编排器
func NewEngine(bars BarRepository, cost *CostModel, logger *slog.Logger) *Engine {
	return &Engine{
		bars:   bars,
		cost:   cost,
		logger: logger,
	}
}

// Run 对标的清单执行回测并聚合为结果。
// 同一批次内所有模拟共享同一份参数，参数的解析由调用方在批次开始前完成一次。
func (e *Engine) Run(ctx context.Context, instruments []Instrument, params regimedomain.Parameters, opts EngineOptions) *Result {
	result := NewResult()

	if opts.Parallel && len(instruments) > opts.ParallelThreshold {
		workers := opts.MaxWorkers
		if workers <= 0 {
			workers = runtime.NumCPU() - 1
			if workers < 1 {
				workers = 1
			}
			if workers > maxEngineWorkers {
				workers = maxEngineWorkers
			}
		}
		e.runParallel(ctx, instruments, params, opts, workers, result)
		return result
	}

	for _, inst := range instruments {
		trades, skipped := e.simulateOne(ctx, inst, params, opts)
		if skipped {
			result.AddSkipped(1)
			continue
		}
		result.AddTrades(trades)
	}
	return result
}

// runParallel 以固定大小的 worker 池扇出模拟任务，待全部完成后聚合
func (e *Engine) runParallel(ctx context.Context, instruments []Instrument, params regimedomain.Parameters, opts EngineOptions, workers int, result *Result) {
	e.logger.Info("starting parallel backtest", "symbols", len(instruments), "workers", workers)

	type outcome struct {
		trades  []Trade
		skipped bool
	}

	jobs := make(chan Instrument)
	collected := make(chan outcome)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range jobs {
				trades, skipped := e.simulateOne(ctx, inst, params, opts)
				collected <- outcome{trades: trades, skipped: skipped}
			}
		}()
	}

	go func() {
		for _, inst := range instruments {
			jobs <- inst
		}
		close(jobs)
		wg.Wait()
		close(collected)
	}()

	for out := range collected {
		if out.skipped {
			result.AddSkipped(1)
			continue
		}
		result.AddTrades(out.trades)
	}
}

// simulateOne 模拟单只标的。数据错误或 panic 被捕获并跳过该标的。
func (e *Engine) simulateOne(ctx context.Context, inst Instrument, params regimedomain.Parameters, opts EngineOptions) (trades []Trade, skipped bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("simulation panicked, symbol skipped", "symbol", inst.Symbol, "panic", r)
			trades = nil
			skipped = true
		}
	}()

	bars, err := e.bars.GetDailyBars(ctx, inst.Symbol, opts.HistoryDays)
	if err != nil {
		e.logger.Warn("failed to load bars, symbol skipped", "symbol", inst.Symbol, "error", err)
		return nil, true
	}

	sim := NewSimulator(params, e.cost)
	sim.UseTrailingStop = opts.UseTrailingStop
	if opts.Shares > 0 {
		sim.Shares = opts.Shares
	}
	return sim.Run(inst.Symbol, inst.Name, bars), false
}
