package model

import "time"

type SignalKind string

const (
	SignalBuy  SignalKind = "buy"
	SignalSell SignalKind = "sell"
)

// Signal 策略发出的交易建议。Strength 在 [0,1] 区间，
// 用于仓位缩放：1.0 表示满仓位比例开仓，0.5 表示半仓。
type Signal struct {
	Timestamp time.Time  `json:"timestamp"`
	Symbol    string     `json:"symbol"`
	Kind      SignalKind `json:"kind"`
	Strength  float64    `json:"strength"`
	Strategy  string     `json:"strategy"` // 来源策略名
	Comment   string     `json:"comment,omitempty"`

	// 可选的风险提示，开仓成交后交给止损管理器。
	// 为 0 表示该信号不提供，使用配置中的默认值。
	SLPrice     float64 `json:"sl_price,omitempty"`
	TPPrice     float64 `json:"tp_price,omitempty"`
	TrailingPct float64 `json:"trailing_pct,omitempty"` // 回撤比例，如 0.03 表示高点回落3%离场
}

// 保护性离场原因
type ExitReason string

const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
)

// ExitSignal 止损/止盈管理器发出的离场信号，
// 只由引擎消费并转换为市价卖单，不直接操作账本。
type ExitSignal struct {
	Timestamp time.Time  `json:"timestamp"`
	Symbol    string     `json:"symbol"`
	Reason    ExitReason `json:"reason"`
	Price     float64    `json:"price"` // 触发时的收盘价
}
