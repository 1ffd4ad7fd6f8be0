package application

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/quantengine/internal/risk/domain"
)

func newTestService() *RiskService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	controller := domain.NewDrawdownController(domain.DefaultDrawdownConfig(), nil, logger)
	return NewRiskService(controller, nil, nil, logger)
}

func TestEvaluateWithoutSnapshotIsPermissive(t *testing.T) {
	s := newTestService()

	state := s.Evaluate(context.Background(), nil)

	assert.True(t, state.CanTrade)
	assert.InDelta(t, 1.0, state.RiskScale, 1e-9)
	assert.InDelta(t, 1.0, state.MaxTotalExposure, 1e-9)
	require.Len(t, state.Reasons, 1)
	assert.Equal(t, "未提供账户净值，回撤控制未启用", state.Reasons[0])
}

func TestEvaluateUpdatesControllerState(t *testing.T) {
	s := newTestService()
	asOf := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	s.Evaluate(context.Background(), &EquitySnapshot{Equity: 105000, AsOf: asOf})
	state := s.Evaluate(context.Background(), &EquitySnapshot{Equity: 92000, AsOf: asOf.AddDate(0, 0, 1)})

	assert.InDelta(t, 13000.0/105000.0, state.TotalDrawdown, 1e-9)

	view := s.Status()
	assert.InDelta(t, 105000.0, view.State.PeakCapital, 1e-9)
}

func TestCalculateSizeEstimatesADV(t *testing.T) {
	s := newTestService()

	// 未显式给出 ADV 时用成交额序列估算：均值 50 万 × 5% 上限 → 500 股
	result := s.CalculateSize(context.Background(), SizingRequest{
		SizingInput: domain.SizingInput{
			Price:           50,
			StopLoss:        45,
			TotalCapital:    1000000,
			RiskBudgetRatio: 0.003,
			RiskScale:       1.0,
		},
		Amounts: []float64{500000, 500000, 500000},
	})

	assert.Equal(t, 500, result.Shares)
}

func TestForceResumeAndReset(t *testing.T) {
	s := newTestService()
	asOf := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	s.Evaluate(context.Background(), &EquitySnapshot{Equity: 105000, AsOf: asOf})
	s.Evaluate(context.Background(), &EquitySnapshot{Equity: 80000, AsOf: asOf.AddDate(0, 0, 1)})
	require.False(t, s.Status().CanTrade)

	view := s.ForceResume(context.Background())
	assert.True(t, view.CanTrade)

	view = s.Reset(context.Background(), 200000)
	assert.InDelta(t, 200000.0, view.State.PeakCapital, 1e-9)
}
