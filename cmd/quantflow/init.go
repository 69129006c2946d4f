package main

import (
	"fmt"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"quantflow/conf"
	"quantflow/internal/dao"
	"quantflow/internal/dao/query"
	"quantflow/internal/engine"
	"quantflow/internal/feed"
	"quantflow/internal/handler/backtest"
	"quantflow/internal/model"
	"quantflow/internal/router"
	"quantflow/internal/strategy"
	"quantflow/pkg/db"
	"quantflow/pkg/logger"
	"quantflow/pkg/recorder"
)

// runOnce 按配置跑一次完整回测
func runOnce(cfg *conf.Config) (*model.Result, error) {
	bt := cfg.Backtest
	if bt.DataFile == "" {
		return nil, fmt.Errorf("backtest.data-file is required in cli mode")
	}

	start, err := conf.ParseDate(bt.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := conf.ParseDate(bt.EndDate)
	if err != nil {
		return nil, err
	}

	csvFeed, err := feed.NewCSVFeed(bt.DataFile, bt.Symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("load data file: %w", err)
	}

	st, err := strategy.Get(bt.Strategy)
	if err != nil {
		return nil, err
	}
	st.Reset()

	eng := engine.New(csvFeed, cfg, logger.L())
	eng.SetStrategy(st)

	result, err := eng.RunBacktest()
	if err != nil {
		return nil, err
	}

	// 结果落盘。落盘失败不丢结果，错误合并后交给调用方决定
	rec := recorder.NewJSONFileRecorder("backtest_results.json")
	if recErr := rec.Record(result); recErr != nil {
		err = multierr.Append(err, recErr)
	}
	return result, err
}

// InitRouter 组装 server 模式的依赖
func InitRouter(cfg *conf.Config, gormDB *gorm.DB) *router.ApiRouter {
	var backtestDao dao.BacktestDao
	if gormDB != nil {
		backtestDao = query.NewBacktestDao(gormDB)
	}
	backtestHandler := backtest.NewHandler(cfg, backtestDao)
	return router.NewApiRouter(backtestHandler)
}

// initDB 配置了 db 段才连库，连不上直接失败而不是静默降级
func initDB(cfg *conf.Config) (*gorm.DB, error) {
	if cfg.Db == nil {
		return nil, nil
	}
	return db.Init(cfg.Db)
}
