package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/wyfcoding/quantengine/internal/backtest/domain"
)

type barRepository struct {
	db *gorm.DB
}

// NewBarRepository 创建日线行情仓储。
// 个股与指数共用一张日线表，以代码区分。
func NewBarRepository(db *gorm.DB) domain.BarRepository {
	return &barRepository{db: db}
}

func (r *barRepository) GetDailyBars(ctx context.Context, symbol string, days int) ([]domain.Bar, error) {
	return r.latestBars(ctx, symbol, days)
}

func (r *barRepository) GetIndexBars(ctx context.Context, code string, days int) ([]domain.Bar, error) {
	return r.latestBars(ctx, code, days)
}

// latestBars 取最近 days 条记录并恢复为升序
func (r *barRepository) latestBars(ctx context.Context, symbol string, days int) ([]domain.Bar, error) {
	var models []*BarModel
	query := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("date DESC")
	if days > 0 {
		query = query.Limit(days)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	bars := make([]domain.Bar, len(models))
	for i, m := range models {
		bars[len(models)-1-i] = toBar(m)
	}
	return bars, nil
}
