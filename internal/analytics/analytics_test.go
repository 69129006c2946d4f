package analytics

import (
	"math"
	"testing"
	"time"

	"quantflow/internal/model"
)

func ts(day int) time.Time {
	return time.Date(2023, 6, day, 15, 0, 0, 0, time.UTC)
}

func fill(side model.OrderSide, day int, price, qty, commission float64) *model.Fill {
	return &model.Fill{
		Symbol:     "600519.SH",
		Side:       side,
		Price:      price,
		Quantity:   qty,
		Commission: commission,
		Timestamp:  ts(day),
	}
}

// 一买一卖完整配对
func TestMatchTradesSimple(t *testing.T) {
	a := New(nil)
	a.OnFill(fill(model.Buy, 1, 10, 100, 3))
	a.OnFill(fill(model.Sell, 5, 12, 100, 4))

	trades, open := a.MatchTrades()
	if len(trades) != 1 || len(open) != 0 {
		t.Fatalf("trades=%d open=%d", len(trades), len(open))
	}

	tr := trades[0]
	// (12-10)*100 - 3 - 4
	if math.Abs(tr.Profit-193) > 1e-9 {
		t.Fatalf("profit = %v, want 193", tr.Profit)
	}
	if math.Abs(tr.ProfitPct-193.0/1000) > 1e-9 {
		t.Fatalf("profit pct = %v", tr.ProfitPct)
	}
	if tr.Holding != ts(5).Sub(ts(1)) {
		t.Fatalf("holding = %v", tr.Holding)
	}
}

// 一笔卖出吃掉两笔买入，先买的先配对，手续费按数量分摊
func TestMatchTradesFIFOSplit(t *testing.T) {
	a := New(nil)
	a.OnFill(fill(model.Buy, 1, 10, 100, 2))
	a.OnFill(fill(model.Buy, 2, 11, 100, 2))
	a.OnFill(fill(model.Sell, 5, 12, 150, 3))

	trades, open := a.MatchTrades()
	if len(trades) != 2 {
		t.Fatalf("trades = %d, want 2", len(trades))
	}

	// 第一笔：100股全配，买方手续费全摊，卖方摊 100/150
	t1 := trades[0]
	if t1.Quantity != 100 || t1.EntryPrice != 10 {
		t.Fatalf("first trade = %+v", t1)
	}
	want1 := (12.0-10.0)*100 - 2 - 3*100.0/150.0
	if math.Abs(t1.Profit-want1) > 1e-9 {
		t.Fatalf("first profit = %v, want %v", t1.Profit, want1)
	}

	// 第二笔：只配了 50 股，买方手续费摊一半
	t2 := trades[1]
	if t2.Quantity != 50 || t2.EntryPrice != 11 {
		t.Fatalf("second trade = %+v", t2)
	}
	want2 := (12.0-11.0)*50 - 2*50.0/100.0 - 3*50.0/150.0
	if math.Abs(t2.Profit-want2) > 1e-9 {
		t.Fatalf("second profit = %v, want %v", t2.Profit, want2)
	}

	// 第二笔买入还剩 50 股未配对
	if len(open) != 1 || open[0].Price != 11 {
		t.Fatalf("open = %+v", open)
	}
}

// 相同输入反复配对结果一致
func TestMatchTradesDeterministic(t *testing.T) {
	build := func() *Analytics {
		a := New(nil)
		a.OnFill(fill(model.Buy, 1, 10, 100, 1))
		a.OnFill(fill(model.Buy, 2, 11, 200, 2))
		a.OnFill(fill(model.Sell, 3, 12, 150, 2))
		a.OnFill(fill(model.Buy, 4, 9, 100, 1))
		a.OnFill(fill(model.Sell, 5, 10, 250, 3))
		return a
	}

	first, firstOpen := build().MatchTrades()
	for i := 0; i < 5; i++ {
		trades, open := build().MatchTrades()
		if len(trades) != len(first) || len(open) != len(firstOpen) {
			t.Fatalf("run %d: trades=%d open=%d", i, len(trades), len(open))
		}
		for j := range trades {
			if trades[j].Profit != first[j].Profit || trades[j].Quantity != first[j].Quantity {
				t.Fatalf("run %d trade %d differs: %+v vs %+v", i, j, trades[j], first[j])
			}
		}
	}
}

// 全胜时盈亏比取哨兵值而不是无穷大
func TestProfitFactorCap(t *testing.T) {
	a := New(nil)
	a.OnFill(fill(model.Buy, 1, 10, 100, 0))
	a.OnFill(fill(model.Sell, 2, 12, 100, 0))

	r := &model.Result{InitialCapital: 100000, FinalCapital: 100200}
	a.Compute(r, 0)

	if r.ProfitFactor != ProfitFactorCap {
		t.Fatalf("profit factor = %v, want cap %v", r.ProfitFactor, ProfitFactorCap)
	}
	if r.WinRate != 1 {
		t.Fatalf("win rate = %v, want 1", r.WinRate)
	}
}

// 没有任何交易时盈亏比为 0
func TestProfitFactorNoTrades(t *testing.T) {
	a := New(nil)
	r := &model.Result{InitialCapital: 100000, FinalCapital: 100000}
	a.Compute(r, 0)
	if r.ProfitFactor != 0 || r.TotalTrades != 0 {
		t.Fatalf("result = %+v", r)
	}
}

// 连胜连亏：W W L W L L L → 最长连胜2 最长连亏3
func TestStreaks(t *testing.T) {
	a := New(nil)
	outcomes := []float64{12, 12, 9, 12, 9, 9, 9} // 买入价固定 10
	for i, exitPrice := range outcomes {
		day := i*2 + 1
		a.OnFill(fill(model.Buy, day, 10, 100, 0))
		a.OnFill(fill(model.Sell, day+1, exitPrice, 100, 0))
	}

	r := &model.Result{InitialCapital: 100000, FinalCapital: 100000}
	a.Compute(r, 0)

	if r.TotalTrades != 7 || r.WinningTrades != 3 || r.LosingTrades != 4 {
		t.Fatalf("counts = %d/%d/%d", r.TotalTrades, r.WinningTrades, r.LosingTrades)
	}
	if r.MaxConsecWins != 2 || r.MaxConsecLosses != 3 {
		t.Fatalf("streaks = %d/%d, want 2/3", r.MaxConsecWins, r.MaxConsecLosses)
	}
	// 连胜段 [2,1]，连亏段 [1,3]
	if math.Abs(r.AvgConsecWins-1.5) > 1e-9 || math.Abs(r.AvgConsecLosses-2) > 1e-9 {
		t.Fatalf("avg streaks = %v/%v", r.AvgConsecWins, r.AvgConsecLosses)
	}
}

// 回撤曲线每个点都在 [0,1]，最大回撤与曲线一致
func TestDrawdownCurve(t *testing.T) {
	a := New(nil)
	values := []float64{100000, 110000, 99000, 104500, 120000, 90000}
	for i, v := range values {
		a.OnEquity(ts(i+1), v)
	}

	r := &model.Result{InitialCapital: 100000, FinalCapital: 90000}
	a.Compute(r, 0)

	if len(r.DrawdownCurve) != len(values) {
		t.Fatalf("curve length = %d", len(r.DrawdownCurve))
	}
	var peakDD float64
	for i, dd := range r.DrawdownCurve {
		if dd < 0 || dd > 1 {
			t.Fatalf("drawdown[%d] = %v out of [0,1]", i, dd)
		}
		if dd > peakDD {
			peakDD = dd
		}
	}
	if math.Abs(r.MaxDrawdown-peakDD) > 1e-9 {
		t.Fatalf("max drawdown = %v, curve max = %v", r.MaxDrawdown, peakDD)
	}
	// 最深点 (120000-90000)/120000 = 0.25
	if math.Abs(r.MaxDrawdown-0.25) > 1e-9 {
		t.Fatalf("max drawdown = %v, want 0.25", r.MaxDrawdown)
	}
}

// 资金曲线只涨不跌时夏普为正、索提诺为零（没有负收益）
func TestRatiosOnUptrend(t *testing.T) {
	a := New(nil)
	value := 100000.0
	for i := 0; i < 10; i++ {
		a.OnEquity(ts(i+1), value)
		if i%2 == 0 {
			value *= 1.01
		} else {
			value *= 1.02
		}
	}

	r := &model.Result{InitialCapital: 100000, FinalCapital: value}
	a.Compute(r, 0)

	if r.TotalReturn <= 0 {
		t.Fatalf("total return = %v", r.TotalReturn)
	}
	if r.MaxDrawdown != 0 {
		t.Fatalf("max drawdown = %v, want 0", r.MaxDrawdown)
	}
	if r.Sortino != 0 {
		t.Fatalf("sortino = %v, want 0 without negative returns", r.Sortino)
	}
	if r.Sharpe <= 0 {
		t.Fatalf("sharpe = %v, want positive", r.Sharpe)
	}
}
