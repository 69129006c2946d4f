package model

import "time"

// Kline 一根K线（OHLCV），由数据源产生，按时间升序排列，回测期间不可变
type Kline struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Turnover  float64   `json:"turnover,omitempty"` // 成交额，部分数据源没有
}
