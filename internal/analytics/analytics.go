// Package analytics 绩效分析：消费时间有序的成交流和资金曲线，
// 做 FIFO 买卖配对并计算各项比率。
package analytics

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"quantflow/internal/model"
)

type Analytics struct {
	fills  []*model.Fill
	equity []model.EquityPoint
	logger *zap.Logger
}

func New(logger *zap.Logger) *Analytics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analytics{logger: logger}
}

// OnFill 记录一笔成交。成交必须按时间顺序到达（回测循环保证这一点）
func (a *Analytics) OnFill(f *model.Fill) {
	a.fills = append(a.fills, f)
}

// OnEquity 每根K线结束时采样一次总资产
func (a *Analytics) OnEquity(ts time.Time, value float64) {
	a.equity = append(a.equity, model.EquityPoint{Timestamp: ts, Value: value})
}

func (a *Analytics) EquityCurve() []model.EquityPoint { return a.equity }

// openLot 配对过程中一笔买入尚未被卖出消耗的剩余部分
type openLot struct {
	fill      *model.Fill
	remaining float64
}

// MatchTrades 按标的做 FIFO 配对：最早未配对的买入对最早的卖出，
// 严格按时间顺序，产生 CompletedTrade；
// 收尾仍未配对的买入按持仓单独返回，不计入交易统计。
func (a *Analytics) MatchTrades() ([]*model.CompletedTrade, []*model.Fill) {
	queues := make(map[string][]*openLot)
	var trades []*model.CompletedTrade

	for _, f := range a.fills {
		switch f.Side {
		case model.Buy:
			queues[f.Symbol] = append(queues[f.Symbol], &openLot{fill: f, remaining: f.Quantity})

		case model.Sell:
			q := queues[f.Symbol]
			sellLeft := f.Quantity
			for sellLeft > 1e-9 && len(q) > 0 {
				lot := q[0]
				matched := lot.remaining
				if sellLeft < matched {
					matched = sellLeft
				}

				buy := lot.fill
				// 手续费按配对数量在买卖两边分摊
				entryComm := buy.Commission * matched / buy.Quantity
				exitComm := f.Commission * matched / f.Quantity
				profit := (f.Price-buy.Price)*matched - entryComm - exitComm
				cost := buy.Price * matched

				t := &model.CompletedTrade{
					Symbol:     f.Symbol,
					Quantity:   matched,
					EntryTime:  buy.Timestamp,
					ExitTime:   f.Timestamp,
					EntryPrice: buy.Price,
					ExitPrice:  f.Price,
					Holding:    f.Timestamp.Sub(buy.Timestamp),
					Profit:     profit,
				}
				if cost > 0 {
					t.ProfitPct = profit / cost
				}
				trades = append(trades, t)

				lot.remaining -= matched
				sellLeft -= matched
				if lot.remaining <= 1e-9 {
					q = q[1:]
				}
			}
			queues[f.Symbol] = q
			if sellLeft > 1e-9 {
				a.logger.Warn("sell fill without matching buys, ignored in trade matching",
					zap.String("symbol", f.Symbol), zap.Float64("quantity", sellLeft))
			}
		}
	}

	// 剩余的未配对买入，按标的字典序 + 时间序输出，保证确定性
	symbols := make([]string, 0, len(queues))
	for s, q := range queues {
		if len(q) > 0 {
			symbols = append(symbols, s)
		}
	}
	sort.Strings(symbols)

	var open []*model.Fill
	for _, s := range symbols {
		for _, lot := range queues[s] {
			open = append(open, lot.fill)
		}
	}
	return trades, open
}
