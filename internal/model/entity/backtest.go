package entity

import "time"

// BacktestRun 一次回测的汇总记录，用于历史对比
type BacktestRun struct {
	ID             uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	RunID          string    `gorm:"column:run_id;type:varchar(64);not null;unique"`
	Symbol         string    `gorm:"column:symbol;type:varchar(30);not null"`
	Strategy       string    `gorm:"column:strategy;type:varchar(64)"`
	InitialCapital float64   `gorm:"column:initial_capital;type:decimal(18,4)"`
	FinalCapital   float64   `gorm:"column:final_capital;type:decimal(18,4)"`
	TotalReturn    float64   `gorm:"column:total_return;type:decimal(10,6)"`
	AnnualReturn   float64   `gorm:"column:annual_return;type:decimal(10,6)"`
	MaxDrawdown    float64   `gorm:"column:max_drawdown;type:decimal(10,6)"`
	Sharpe         float64   `gorm:"column:sharpe;type:decimal(10,4)"`
	Sortino        float64   `gorm:"column:sortino;type:decimal(10,4)"`
	Calmar         float64   `gorm:"column:calmar;type:decimal(10,4)"`
	TotalTrades    int       `gorm:"column:total_trades"`
	WinRate        float64   `gorm:"column:win_rate;type:decimal(8,6)"`
	ProfitFactor   float64   `gorm:"column:profit_factor;type:decimal(10,4)"`
	StartAt        time.Time `gorm:"column:start_at"`
	EndAt          time.Time `gorm:"column:end_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (BacktestRun) TableName() string {
	return "backtest_runs"
}

// BacktestTrade 回测产生的一笔配对交易
type BacktestTrade struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      string    `gorm:"column:run_id;type:varchar(64);not null;index"`
	Symbol     string    `gorm:"column:symbol;type:varchar(30);not null"`
	Quantity   float64   `gorm:"column:quantity;type:decimal(18,4)"`
	EntryTime  time.Time `gorm:"column:entry_time"`
	ExitTime   time.Time `gorm:"column:exit_time"`
	EntryPrice float64   `gorm:"column:entry_price;type:decimal(15,8)"`
	ExitPrice  float64   `gorm:"column:exit_price;type:decimal(15,8)"`
	Profit     float64   `gorm:"column:profit;type:decimal(18,4)"`
	ProfitPct  float64   `gorm:"column:profit_pct;type:decimal(10,6)"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (BacktestTrade) TableName() string {
	return "backtest_trades"
}
