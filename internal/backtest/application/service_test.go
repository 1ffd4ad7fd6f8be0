package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/quantengine/internal/backtest/domain"
	regimeapp "github.com/wyfcoding/quantengine/internal/regime/application"
	regimedomain "github.com/wyfcoding/quantengine/internal/regime/domain"
)

type memRepo struct {
	mu        sync.Mutex
	tasks     map[string]domain.Task
	reports   map[string]domain.Report
	trades    map[string][]domain.Trade
	tradesErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		tasks:   map[string]domain.Task{},
		reports: map[string]domain.Report{},
		trades:  map[string][]domain.Trade{},
	}
}

func (r *memRepo) SaveTask(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.TaskID] = *task
	return nil
}

func (r *memRepo) FindTaskByID(_ context.Context, taskID string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return nil, nil
	}
	return &task, nil
}

func (r *memRepo) SaveReport(_ context.Context, report *domain.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.TaskID] = *report
	return nil
}

func (r *memRepo) FindReportByTaskID(_ context.Context, taskID string) (*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[taskID]
	if !ok {
		return nil, nil
	}
	return &report, nil
}

func (r *memRepo) SaveTrades(_ context.Context, taskID string, trades []domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tradesErr != nil {
		return r.tradesErr
	}
	r.trades[taskID] = trades
	return nil
}

func (r *memRepo) FindTradesByTaskID(_ context.Context, taskID string) ([]domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trades[taskID], nil
}

type memBarRepo struct {
	bars map[string][]domain.Bar
}

func (r *memBarRepo) GetDailyBars(_ context.Context, symbol string, _ int) ([]domain.Bar, error) {
	return r.bars[symbol], nil
}

func (r *memBarRepo) GetIndexBars(_ context.Context, code string, _ int) ([]domain.Bar, error) {
	return r.bars[code], nil
}

// tradeSeries 构造先放量突破入场、随后触发止盈的行情
func tradeSeries() []domain.Bar {
	bars := make([]domain.Bar, 52)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = domain.Bar{
			Date: day.AddDate(0, 0, i), Open: 10.0, High: 10.1, Low: 9.9, Close: 10.0, Volume: 1000,
		}
	}
	bars[50] = domain.Bar{Date: day.AddDate(0, 0, 50), Open: 10.0, High: 10.25, Low: 10.0, Close: 10.2, Volume: 2500}
	bars[51] = domain.Bar{Date: day.AddDate(0, 0, 51), Open: 11.0, High: 11.9, Low: 10.9, Close: 11.8, Volume: 1500}
	return bars
}

func newTestService(repo *memRepo, bars domain.BarRepository) *BacktestService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := domain.NewEngine(bars, domain.NewDefaultCostModel(), logger)
	strategy := regimeapp.NewAdaptiveStrategy(logger)
	return NewBacktestService(repo, bars, engine, strategy, nil, nil, logger, Config{
		IndexCode:     "000852",
		BenchmarkCode: "000300",
	})
}

func TestSubmitRejectsEmptyUniverse(t *testing.T) {
	s := newTestService(newMemRepo(), &memBarRepo{bars: map[string][]domain.Bar{}})

	_, err := s.Submit(context.Background(), SubmitRequest{})
	assert.Error(t, err)
}

func TestSubmitRunsTaskToCompletion(t *testing.T) {
	repo := newMemRepo()
	bars := &memBarRepo{bars: map[string][]domain.Bar{
		"600000": tradeSeries(),
	}}
	s := newTestService(repo, bars)

	task, err := s.Submit(context.Background(), SubmitRequest{
		Universe: []domain.Instrument{{Symbol: "600000", Name: "甲"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, task.Status)

	require.Eventually(t, func() bool {
		stored, err := s.GetTask(context.Background(), task.TaskID)
		return err == nil && stored != nil && stored.Status == domain.TaskStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	report, err := s.GetReport(context.Background(), task.TaskID)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.TotalTrades)

	trades, err := s.GetTrades(context.Background(), task.TaskID)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "600000", trades[0].Symbol)
}

func TestSubmitMarksTaskFailedOnPersistError(t *testing.T) {
	repo := newMemRepo()
	repo.tradesErr = errors.New("storage unavailable")
	bars := &memBarRepo{bars: map[string][]domain.Bar{
		"600000": tradeSeries(),
	}}
	s := newTestService(repo, bars)

	task, err := s.Submit(context.Background(), SubmitRequest{
		Universe: []domain.Instrument{{Symbol: "600000"}},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, err := s.GetTask(context.Background(), task.TaskID)
		return err == nil && stored != nil && stored.Status == domain.TaskStatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	stored, err := s.GetTask(context.Background(), task.TaskID)
	require.NoError(t, err)
	assert.Contains(t, stored.Error, "storage unavailable")
}

func TestRegimeFallsBackWithoutIndexData(t *testing.T) {
	repo := newMemRepo()
	bars := &memBarRepo{bars: map[string][]domain.Bar{
		"600000": tradeSeries(),
	}}
	s := newTestService(repo, bars)

	task, err := s.Submit(context.Background(), SubmitRequest{
		Universe: []domain.Instrument{{Symbol: "600000"}},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, err := s.GetTask(context.Background(), task.TaskID)
		return err == nil && stored != nil && stored.Status == domain.TaskStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	// 指数行情缺失时沿用当前（盘整市）状态
	stored, err := s.GetTask(context.Background(), task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, string(regimedomain.Consolidation), stored.Regime)
}

func TestShippedConfigDetectsOnHS300(t *testing.T) {
	v := viper.New()
	v.SetConfigFile("../../../configs/backtest/config.toml")
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.UnmarshalKey("backtest", &cfg))

	// 状态识别跑在沪深300上，小盘指数只作风格漂移对照
	assert.Equal(t, "000300", cfg.IndexCode)
	assert.Equal(t, "000852", cfg.BenchmarkCode)
}
