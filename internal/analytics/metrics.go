package analytics

import (
	"math"

	"quantflow/internal/model"
)

// 每年交易日数，年化用
const tradingDaysPerYear = 252

// ProfitFactorCap 毛亏损为零且有盈利时的盈亏比哨兵值。
// 这是一个约定常量，不是推导出来的比率。
const ProfitFactorCap = 10.0

// Compute 由配对结果和资金曲线填充 Result 的统计字段。
// riskFreeRate 为日度无风险利率。
func (a *Analytics) Compute(r *model.Result, riskFreeRate float64) {
	trades, open := a.MatchTrades()
	r.Trades = trades
	r.OpenFills = open
	r.EquityCurve = a.equity

	computeTradeStats(r, trades)
	computeEquityStats(r, riskFreeRate)
}

func computeTradeStats(r *model.Result, trades []*model.CompletedTrade) {
	r.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	// 单次时间序扫描同时得出胜负、毛利毛亏和连胜连亏
	var winStreak, lossStreak int
	var winStreaks, lossStreaks []int

	for _, t := range trades {
		if t.Profit > 0 {
			r.WinningTrades++
			r.GrossProfit += t.Profit
			winStreak++
			if lossStreak > 0 {
				lossStreaks = append(lossStreaks, lossStreak)
				lossStreak = 0
			}
		} else {
			r.LosingTrades++
			r.GrossLoss += -t.Profit
			lossStreak++
			if winStreak > 0 {
				winStreaks = append(winStreaks, winStreak)
				winStreak = 0
			}
		}
	}
	if winStreak > 0 {
		winStreaks = append(winStreaks, winStreak)
	}
	if lossStreak > 0 {
		lossStreaks = append(lossStreaks, lossStreak)
	}

	r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades)

	switch {
	case r.GrossLoss > 0:
		r.ProfitFactor = r.GrossProfit / r.GrossLoss
	case r.GrossProfit > 0:
		r.ProfitFactor = ProfitFactorCap
	default:
		r.ProfitFactor = 0
	}

	r.MaxConsecWins, r.AvgConsecWins = streakStats(winStreaks)
	r.MaxConsecLosses, r.AvgConsecLosses = streakStats(lossStreaks)
}

func streakStats(streaks []int) (max int, avg float64) {
	if len(streaks) == 0 {
		return 0, 0
	}
	var sum int
	for _, s := range streaks {
		if s > max {
			max = s
		}
		sum += s
	}
	return max, float64(sum) / float64(len(streaks))
}

func computeEquityStats(r *model.Result, riskFreeRate float64) {
	eq := r.EquityCurve
	if len(eq) == 0 {
		return
	}

	// 回撤曲线：距运行峰值的回落比例
	r.DrawdownCurve = make([]float64, len(eq))
	peak := eq[0].Value
	for i, p := range eq {
		if p.Value > peak {
			peak = p.Value
		}
		var dd float64
		if peak > 0 {
			dd = (peak - p.Value) / peak
		}
		r.DrawdownCurve[i] = dd
		if dd > r.MaxDrawdown {
			r.MaxDrawdown = dd
		}
	}

	if r.InitialCapital > 0 {
		r.TotalReturn = r.FinalCapital/r.InitialCapital - 1
	}

	days := len(eq)
	if days > 1 {
		r.AnnualReturn = math.Pow(1+r.TotalReturn, tradingDaysPerYear/float64(days)) - 1
	} else {
		r.AnnualReturn = r.TotalReturn
	}

	// 日收益序列
	returns := make([]float64, 0, len(eq)-1)
	for i := 1; i < len(eq); i++ {
		if eq[i-1].Value > 0 {
			returns = append(returns, eq[i].Value/eq[i-1].Value-1)
		}
	}
	if len(returns) < 2 {
		return
	}

	mean := meanOf(returns)
	std := stddevOf(returns, mean)
	if std > 0 {
		r.Sharpe = (mean - riskFreeRate) / std * math.Sqrt(tradingDaysPerYear)
	}

	// 索提诺只用负收益的波动
	var negatives []float64
	for _, ret := range returns {
		if ret < 0 {
			negatives = append(negatives, ret)
		}
	}
	if len(negatives) > 0 {
		downside := stddevOf(negatives, meanOf(negatives))
		if downside > 0 {
			r.Sortino = (mean - riskFreeRate) / downside * math.Sqrt(tradingDaysPerYear)
		}
	}

	if r.MaxDrawdown > 0 {
		r.Calmar = r.AnnualReturn / r.MaxDrawdown
	}
}

func meanOf(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// 总体标准差
func stddevOf(xs []float64, mean float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
