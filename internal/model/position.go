package model

import "time"

// Position 单个标的的持仓。只做多，数量永远不为负；
// 数量归零时从账本中移除。AvgCost 在每次买入时按加权平均更新，卖出不变。
type Position struct {
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	AvgCost       float64   `json:"avg_cost"`
	MarketPrice   float64   `json:"market_price"`
	MarketValue   float64   `json:"market_value"`
	UnrealizedPnl float64   `json:"unrealized_pnl"`
	RealizedPnl   float64   `json:"realized_pnl"` // 账本口径：卖出时按加权平均成本结算
	OpenTime      time.Time `json:"open_time"`

	Fills []*Fill `json:"fills,omitempty"` // 本仓位的成交历史
}

// UpdatePrice 按最新价格重算市值与浮动盈亏。
// 相同价格重复调用结果不变。
func (p *Position) UpdatePrice(price float64) {
	p.MarketPrice = price
	p.MarketValue = price * p.Quantity
	p.UnrealizedPnl = (price - p.AvgCost) * p.Quantity
}
