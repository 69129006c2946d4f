package strategy

import (
	"github.com/markcheno/go-talib"

	"quantflow/internal/model"
)

// RSIStrategy 经典超买超卖策略：
// RSI 跌破超卖线发买入信号，升破超买线发卖出信号。
// 信号强度按越界深度缩放。
type RSIStrategy struct {
	Period     int
	Oversold   float64
	Overbought float64

	closes map[string][]float64
}

func NewRSIStrategy(period int, oversold, overbought float64) *RSIStrategy {
	if period <= 0 {
		period = 14
	}
	if oversold <= 0 {
		oversold = 30
	}
	if overbought <= 0 {
		overbought = 70
	}
	return &RSIStrategy{
		Period:     period,
		Oversold:   oversold,
		Overbought: overbought,
		closes:     make(map[string][]float64),
	}
}

func (s *RSIStrategy) Name() string { return "rsi" }

func (s *RSIStrategy) Initialize() {
	s.Reset()
}

func (s *RSIStrategy) Reset() {
	s.closes = make(map[string][]float64)
}

func (s *RSIStrategy) OnKline(k *model.Kline) []*model.Signal {
	closes := appendWindow(s.closes[k.Symbol], k.Close, s.Period*4)
	s.closes[k.Symbol] = closes

	// 指标预热期不发信号
	if len(closes) <= s.Period {
		return nil
	}

	rsis := talib.Rsi(closes, s.Period)
	rsi := rsis[len(rsis)-1]

	switch {
	case rsi <= s.Oversold:
		// 越深越强：RSI 到 0 时强度为 1
		strength := clamp01((s.Oversold - rsi) / s.Oversold)
		if strength == 0 {
			strength = 0.1
		}
		return []*model.Signal{{
			Timestamp: k.Timestamp,
			Symbol:    k.Symbol,
			Kind:      model.SignalBuy,
			Strength:  strength,
			Strategy:  s.Name(),
		}}
	case rsi >= s.Overbought:
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

// appendWindow 追加一个值并把切片裁剪到最多 maxLen 个
func appendWindow(xs []float64, v float64, maxLen int) []float64 {
	xs = append(xs, v)
	if len(xs) > maxLen {
		xs = xs[len(xs)-maxLen:]
	}
	return xs
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
