package strategy

import (
	"github.com/markcheno/go-talib"

	"quantflow/internal/model"
)

// BollingerStrategy 均值回归策略：
// 收盘价跌破下轨买入，升破上轨卖出。
// 买入信号自带止损提示（下轨再往下一段），供止损管理器使用。
type BollingerStrategy struct {
	Period int
	NbDev  float64

	closes map[string][]float64
}

func NewBollingerStrategy(period int, nbDev float64) *BollingerStrategy {
	if period <= 0 {
		period = 20
	}
	if nbDev <= 0 {
		nbDev = 2
	}
	return &BollingerStrategy{
		Period: period,
		NbDev:  nbDev,
		closes: make(map[string][]float64),
	}
}

func (s *BollingerStrategy) Name() string { return "bollinger" }

func (s *BollingerStrategy) Initialize() { s.Reset() }

func (s *BollingerStrategy) Reset() {
	s.closes = make(map[string][]float64)
}

func (s *BollingerStrategy) OnKline(k *model.Kline) []*model.Signal {
	closes := appendWindow(s.closes[k.Symbol], k.Close, s.Period*4)
	s.closes[k.Symbol] = closes

	if len(closes) < s.Period {
		return nil
	}

	upper, middle, lower := talib.BBands(closes, s.Period, s.NbDev, s.NbDev, talib.SMA)
	n := len(closes)
	up, mid, low := upper[n-1], middle[n-1], lower[n-1]

	switch {
	case k.Close <= low:
		// 离中轨越远强度越大
		strength := 0.5
		if mid > low {
			strength = clamp01((mid - k.Close) / (mid - low))
		}
		return []*model.Signal{{
			Timestamp: k.Timestamp,
			Symbol:    k.Symbol,
			Kind:      model.SignalBuy,
			Strength:  strength,
			Strategy:  s.Name(),
			SLPrice:   low * 0.97,
			TPPrice:   mid * 1.05,
		}}
	case k.Close >= up:
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
