package query

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"quantflow/internal/dao"
	"quantflow/internal/model/entity"
)

type backtestDao struct {
	db *gorm.DB
}

func NewBacktestDao(db *gorm.DB) dao.BacktestDao {
	return &backtestDao{
		db: db,
	}
}

// SaveRun 汇总和明细在同一个事务里写入，保证要么都有要么都没有
func (r *backtestDao) SaveRun(ctx context.Context, run *entity.BacktestRun, trades []*entity.BacktestTrade) error {
	now := time.Now()
	run.CreatedAt = now
	for _, t := range trades {
		t.RunID = run.RunID
		t.CreatedAt = now
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(run); result.Error != nil {
			return fmt.Errorf("failed to create backtest run: %w", result.Error)
		}
		if len(trades) > 0 {
			// 批量插入，明细可能很多
			if result := tx.CreateInBatches(trades, 200); result.Error != nil {
				return fmt.Errorf("failed to create backtest trades: %w", result.Error)
			}
		}
		return nil
	})
}

func (r *backtestDao) RunGetByID(ctx context.Context, runID string) (*entity.BacktestRun, error) {
	var run entity.BacktestRun
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *backtestDao) RunGetList(ctx context.Context, limit int) ([]*entity.BacktestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []*entity.BacktestRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *backtestDao) TradesGetByRunID(ctx context.Context, runID string) ([]*entity.BacktestTrade, error) {
	var trades []*entity.BacktestTrade
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("exit_time ASC").
		Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}
