// Package stoploss 持仓保护性离场管理。与策略完全无关：
// 只读价格、发离场信号，仓位本身由引擎转成市价卖单走正常成交流程。
package stoploss

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"quantflow/internal/model"
)

// PositionRisk 一个持仓标的的保护状态。
// 阈值为 0 表示对应保护未启用。
type PositionRisk struct {
	Symbol          string
	StopPrice       float64
	TakeProfitPrice float64
	TrailingPct     float64
	HighWaterMark   float64
}

// Defaults 信号未携带风险提示时使用的默认比例（相对开仓价）
type Defaults struct {
	StopLossPct   float64
	TakeProfitPct float64
	TrailingPct   float64
}

type Manager struct {
	records  map[string]*PositionRisk
	defaults Defaults
	logger   *zap.Logger
}

func NewManager(defaults Defaults, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		records:  make(map[string]*PositionRisk),
		defaults: defaults,
		logger:   logger,
	}
}

// Track 开仓成交后登记保护状态。委托单上的提示价优先，
// 缺失的用默认比例从开仓价推算。
func (m *Manager) Track(symbol string, entryPrice float64, order *model.Order) {
	r := &PositionRisk{
		Symbol:        symbol,
		HighWaterMark: entryPrice,
	}

	r.StopPrice = order.SLPrice
	if r.StopPrice == 0 && m.defaults.StopLossPct > 0 {
		r.StopPrice = entryPrice * (1 - m.defaults.StopLossPct)
	}
	r.TakeProfitPrice = order.TPPrice
	if r.TakeProfitPrice == 0 && m.defaults.TakeProfitPct > 0 {
		r.TakeProfitPrice = entryPrice * (1 + m.defaults.TakeProfitPct)
	}
	r.TrailingPct = order.TrailingPct
	if r.TrailingPct == 0 {
		r.TrailingPct = m.defaults.TrailingPct
	}

	m.records[symbol] = r
	m.logger.Debug("tracking position risk",
		zap.String("symbol", symbol),
		zap.Float64("entry", entryPrice),
		zap.Float64("stop", r.StopPrice),
		zap.Float64("take_profit", r.TakeProfitPrice))
}

// Release 平仓后移除保护状态
func (m *Manager) Release(symbol string) {
	delete(m.records, symbol)
}

// Evaluate 用当前收盘价检查一个标的：
// 价格跌破止损价 → STOP_LOSS；触及止盈价 → TAKE_PROFIT；
// 否则推进移动止损的高水位。移动止损推算出的新止损价
// 只在高于现有止损价时采用——止损只收紧，永不放松。
func (m *Manager) Evaluate(symbol string, price float64, ts time.Time) *model.ExitSignal {
	r, ok := m.records[symbol]
	if !ok {
		return nil
	}

	if r.StopPrice > 0 && price <= r.StopPrice {
		return &model.ExitSignal{
			Timestamp: ts,
			Symbol:    symbol,
			Reason:    model.ExitStopLoss,
			Price:     price,
		}
	}
	if r.TakeProfitPrice > 0 && price >= r.TakeProfitPrice {
		return &model.ExitSignal{
			Timestamp: ts,
			Symbol:    symbol,
			Reason:    model.ExitTakeProfit,
			Price:     price,
		}
	}

	if r.TrailingPct > 0 && price > r.HighWaterMark {
		r.HighWaterMark = price
		candidate := r.HighWaterMark * (1 - r.TrailingPct)
		if candidate > r.StopPrice {
			r.StopPrice = candidate
		}
	}
	return nil
}

// TrackedSymbols 当前登记了保护状态的标的，字典序
func (m *Manager) TrackedSymbols() []string {
	symbols := make([]string, 0, len(m.records))
	for s := range m.records {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Record 返回某标的保护状态的快照
func (m *Manager) Record(symbol string) (PositionRisk, bool) {
	r, ok := m.records[symbol]
	if !ok {
		return PositionRisk{}, false
	}
	return *r, true
}
