package model

import (
	"fmt"
	"strings"
	"time"
)

// EquityPoint 每根K线结束时采样一次的总资产点，构成资金曲线
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Result 一次回测的完整输出。
// 比率类字段均为小数形式（0.25 表示 25%），Summary 输出时才转百分比。
type Result struct {
	RunID    string    `json:"run_id"`
	Symbol   string    `json:"symbol"`
	Strategy string    `json:"strategy"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`

	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	TotalReturn    float64 `json:"total_return"`
	AnnualReturn   float64 `json:"annual_return"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	Sharpe         float64 `json:"sharpe"`
	Sortino        float64 `json:"sortino"`
	Calmar         float64 `json:"calmar"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	ProfitFactor  float64 `json:"profit_factor"`
	GrossProfit   float64 `json:"gross_profit"`
	GrossLoss     float64 `json:"gross_loss"` // 绝对值

	MaxConsecWins   int     `json:"max_consec_wins"`
	MaxConsecLosses int     `json:"max_consec_losses"`
	AvgConsecWins   float64 `json:"avg_consec_wins"`
	AvgConsecLosses float64 `json:"avg_consec_losses"`

	TotalCommission float64 `json:"total_commission"`
	// 账本口径的已实现盈亏（卖出时按加权平均成本结算）。
	// 与 FIFO 配对统计出的 GrossProfit-GrossLoss 可能不一致，两套口径都保留。
	LedgerRealizedPnl float64 `json:"ledger_realized_pnl"`

	Trades        []*CompletedTrade `json:"trades"`
	OpenFills     []*Fill           `json:"open_fills,omitempty"` // 收尾时仍未配对的买入
	EquityCurve   []EquityPoint     `json:"equity_curve"`
	DrawdownCurve []float64         `json:"drawdown_curve"`
}

// Summary 人类可读的回测报告
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "======== 回测报告 %s ========\n", r.RunID)
	fmt.Fprintf(&b, "标的: %s  策略: %s\n", r.Symbol, r.Strategy)
	if !r.StartAt.IsZero() {
		fmt.Fprintf(&b, "区间: %s ~ %s\n", r.StartAt.Format("2006-01-02"), r.EndAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "初始资金: %.2f  期末资金: %.2f\n", r.InitialCapital, r.FinalCapital)
	fmt.Fprintf(&b, "总收益率: %.2f%%  年化收益率: %.2f%%\n", r.TotalReturn*100, r.AnnualReturn*100)
	fmt.Fprintf(&b, "最大回撤: %.2f%%\n", r.MaxDrawdown*100)
	fmt.Fprintf(&b, "夏普比率: %.3f  索提诺比率: %.3f  卡玛比率: %.3f\n", r.Sharpe, r.Sortino, r.Calmar)
	fmt.Fprintf(&b, "交易次数: %d  胜率: %.2f%%  盈亏比: %.2f\n", r.TotalTrades, r.WinRate*100, r.ProfitFactor)
	fmt.Fprintf(&b, "最大连胜: %d (平均 %.1f)  最大连亏: %d (平均 %.1f)\n",
		r.MaxConsecWins, r.AvgConsecWins, r.MaxConsecLosses, r.AvgConsecLosses)
	fmt.Fprintf(&b, "总手续费: %.2f\n", r.TotalCommission)
	return b.String()
}
