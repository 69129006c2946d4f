package strategy

import (
	"github.com/markcheno/go-talib"

	"quantflow/internal/model"
)

// MACDStrategy 金叉死叉策略：
// MACD 线上穿信号线买入，下穿卖出。使用标准参数 (12, 26, 9)。
type MACDStrategy struct {
	Fast, Slow, Signal int

	closes map[string][]float64
}

func NewMACDStrategy(fast, slow, signal int) *MACDStrategy {
	if fast <= 0 {
		fast = 12
	}
	if slow <= 0 {
		slow = 26
	}
	if signal <= 0 {
		signal = 9
	}
	return &MACDStrategy{
		Fast:   fast,
		Slow:   slow,
		Signal: signal,
		closes: make(map[string][]float64),
	}
}

func (s *MACDStrategy) Name() string { return "macd" }

func (s *MACDStrategy) Initialize() { s.Reset() }

func (s *MACDStrategy) Reset() {
	s.closes = make(map[string][]float64)
}

func (s *MACDStrategy) OnKline(k *model.Kline) []*model.Signal {
	window := (s.Slow + s.Signal) * 4
	closes := appendWindow(s.closes[k.Symbol], k.Close, window)
	s.closes[k.Symbol] = closes

	if len(closes) < s.Slow+s.Signal+1 {
		return nil
	}

	macd, signalLine, _ := talib.Macd(closes, s.Fast, s.Slow, s.Signal)
	n := len(macd)
	prevDiff := macd[n-2] - signalLine[n-2]
	currDiff := macd[n-1] - signalLine[n-1]

	switch {
	case prevDiff <= 0 && currDiff > 0:
		// 金叉，强度按柱体相对价格的幅度缩放
		strength := clamp01(currDiff / k.Close * 100)
		if strength < 0.3 {
			strength = 0.3
		}
		return []*model.Signal{{
			Timestamp: k.Timestamp,
			Symbol:    k.Symbol,
			Kind:      model.SignalBuy,
			Strength:  strength,
			Strategy:  s.Name(),
		}}
	case prevDiff >= 0 && currDiff < 0:
		// 死叉
		return []*model.Signal{{
			Timestamp: k.Timestamp,
			Symbol:    k.Symbol,
			Kind:      model.SignalSell,
			Strength:  1,
			Strategy:  s.Name(),
		}}
	}
	return nil
}
