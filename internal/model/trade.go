package model

import "time"

// CompletedTrade 一笔配对完成的买卖（FIFO 撮合的结果），
// 只由绩效分析产生，不保存在 Position 上。
type CompletedTrade struct {
	Symbol     string        `json:"symbol"`
	Quantity   float64       `json:"quantity"`
	EntryTime  time.Time     `json:"entry_time"`
	ExitTime   time.Time     `json:"exit_time"`
	EntryPrice float64       `json:"entry_price"`
	ExitPrice  float64       `json:"exit_price"`
	Holding    time.Duration `json:"holding"`
	Profit     float64       `json:"profit"`     // 已扣除按比例分摊的手续费
	ProfitPct  float64       `json:"profit_pct"` // 相对开仓成本的收益率
}
