package application

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/quantengine/internal/regime/domain"
)

func newStrategy() *AdaptiveStrategy {
	return NewAdaptiveStrategy(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func risingSeries(n int) []float64 {
	prices := make([]float64, n)
	price := 100.0
	returns := []float64{0.02, 0.02, 0.02, 0.02, -0.015}
	for i := 0; i < n; i++ {
		prices[i] = price
		price *= 1 + returns[i%len(returns)]
	}
	return prices
}

func TestAdaptiveStrategyDefaults(t *testing.T) {
	s := newStrategy()
	assert.Equal(t, domain.Consolidation, s.CurrentRegime())
	assert.Equal(t, domain.DefaultParameters(), s.CurrentParams())
	assert.Empty(t, s.History())
}

func TestUpdateRegimeSwitchesParams(t *testing.T) {
	s := newStrategy()

	regime, metrics := s.UpdateRegime(risingSeries(80), nil)

	assert.Equal(t, domain.TrendUp, regime)
	assert.Greater(t, metrics.ADX, 25.0)
	assert.Equal(t, domain.ParamsFor(domain.TrendUp), s.CurrentParams())

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, domain.TrendUp, history[0].Regime)
}

func TestUpdateRegimeInsufficientDataFallsBack(t *testing.T) {
	s := newStrategy()

	regime, _ := s.UpdateRegime(risingSeries(30), nil)

	assert.Equal(t, domain.Consolidation, regime)
	assert.Equal(t, domain.DefaultParameters(), s.CurrentParams())
}

func TestHistoryBounded(t *testing.T) {
	s := newStrategy()
	prices := risingSeries(80)
	for i := 0; i < maxHistory+20; i++ {
		s.UpdateRegime(prices, nil)
	}
	assert.Len(t, s.History(), maxHistory)
}

func TestReset(t *testing.T) {
	s := newStrategy()
	s.UpdateRegime(risingSeries(80), nil)
	require.Equal(t, domain.TrendUp, s.CurrentRegime())

	s.Reset()
	assert.Equal(t, domain.Consolidation, s.CurrentRegime())
	assert.Equal(t, domain.DefaultParameters(), s.CurrentParams())
}
