package dao

import (
	"context"

	"quantflow/internal/model/entity"
)

// BacktestDao 回测结果的持久化入口
type BacktestDao interface {
	// SaveRun 事务性地保存一次回测的汇总和全部交易明细
	SaveRun(ctx context.Context, run *entity.BacktestRun, trades []*entity.BacktestTrade) error
	// RunGetByID 按 run_id 取一次回测的汇总
	RunGetByID(ctx context.Context, runID string) (*entity.BacktestRun, error)
	// RunGetList 按时间倒序取最近的若干次回测
	RunGetList(ctx context.Context, limit int) ([]*entity.BacktestRun, error)
	// TradesGetByRunID 取某次回测的全部交易明细
	TradesGetByRunID(ctx context.Context, runID string) ([]*entity.BacktestTrade, error)
}
