package model

import "time"

type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

type OrderType string

const (
	// 市价单
	Market OrderType = "market"
	// 限价单
	Limit OrderType = "limit"
)

// Order 由账本根据信号推导出来的委托单，策略永远不直接创建 Order
type Order struct {
	ID        int64     `json:"id"` // snowflake
	Symbol    string    `json:"symbol"`
	Side      OrderSide `json:"side"`
	Price     float64   `json:"price"` // 参考价（当前K线收盘价）
	Quantity  float64   `json:"quantity"`
	OrderType OrderType `json:"order_type"`
	Strategy  string    `json:"strategy"`
	Comment   string    `json:"comment,omitempty"`

	// 随开仓信号带过来的风险提示，成交后交给止损管理器
	SLPrice     float64 `json:"sl_price,omitempty"`
	TPPrice     float64 `json:"tp_price,omitempty"`
	TrailingPct float64 `json:"trailing_pct,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Fill 模拟撮合的成交回报，是唯一能改变现金/持仓状态的事件
type Fill struct {
	ID         int64     `json:"id"` // snowflake
	OrderID    int64     `json:"order_id"`
	Symbol     string    `json:"symbol"`
	Side       OrderSide `json:"side"`
	Price      float64   `json:"price"` // 含滑点的成交价
	Quantity   float64   `json:"quantity"`
	Commission float64   `json:"commission"`
	Timestamp  time.Time `json:"timestamp"`
}
