package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/quantengine/internal/backtest/domain"
	"github.com/wyfcoding/quantengine/pkg/db"
)

type backtestRepository struct {
	db *db.DB
}

// NewBacktestRepository 创建回测任务仓储
func NewBacktestRepository(database *db.DB) domain.Repository {
	return &backtestRepository{db: database}
}

func (r *backtestRepository) SaveTask(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *backtestRepository) FindTaskByID(ctx context.Context, taskID string) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *backtestRepository) SaveReport(ctx context.Context, report *domain.Report) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *backtestRepository) FindReportByTaskID(ctx context.Context, taskID string) (*domain.Report, error) {
	var report domain.Report
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// SaveTrades 以事务批量写入成交明细，重复保存前先清理旧记录
func (r *backtestRepository) SaveTrades(ctx context.Context, taskID string, trades []domain.Trade) error {
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&TradeModel{}).Error; err != nil {
			return err
		}
		if len(trades) == 0 {
			return nil
		}
		models := make([]TradeModel, 0, len(trades))
		for _, t := range trades {
			models = append(models, toTradeModel(taskID, t))
		}
		return tx.CreateInBatches(models, 200).Error
	})
}

func (r *backtestRepository) FindTradesByTaskID(ctx context.Context, taskID string) ([]domain.Trade, error) {
	var models []*TradeModel
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("exit_date ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	trades := make([]domain.Trade, 0, len(models))
	for _, m := range models {
		trades = append(trades, toTrade(m))
	}
	return trades, nil
}
