package stoploss

import (
	"math"
	"testing"
	"time"

	"quantflow/internal/model"
)

func barTime(day int) time.Time {
	return time.Date(2023, 6, day, 15, 0, 0, 0, time.UTC)
}

// 100 元开仓 5% 止损，价格走 100→97→94，第三根触发止损
func TestStopLossTriggered(t *testing.T) {
	m := NewManager(Defaults{StopLossPct: 0.05}, nil)
	m.Track("600519.SH", 100, &model.Order{Symbol: "600519.SH"})

	if exit := m.Evaluate("600519.SH", 100, barTime(1)); exit != nil {
		t.Fatalf("no exit expected at 100, got %+v", exit)
	}
	if exit := m.Evaluate("600519.SH", 97, barTime(2)); exit != nil {
		t.Fatalf("no exit expected at 97, got %+v", exit)
	}

	exit := m.Evaluate("600519.SH", 94, barTime(3))
	if exit == nil {
		t.Fatal("expected stop loss at 94")
	}
	if exit.Reason != model.ExitStopLoss || exit.Price != 94 {
		t.Fatalf("exit = %+v", exit)
	}
}

func TestTakeProfitTriggered(t *testing.T) {
	m := NewManager(Defaults{TakeProfitPct: 0.15}, nil)
	m.Track("600519.SH", 100, &model.Order{Symbol: "600519.SH"})

	if exit := m.Evaluate("600519.SH", 114, barTime(1)); exit != nil {
		t.Fatalf("no exit expected at 114, got %+v", exit)
	}
	exit := m.Evaluate("600519.SH", 115, barTime(2))
	if exit == nil || exit.Reason != model.ExitTakeProfit {
		t.Fatalf("expected take profit at 115, got %+v", exit)
	}
}

// 委托单上的提示价优先于默认比例
func TestOrderHintsOverrideDefaults(t *testing.T) {
	m := NewManager(Defaults{StopLossPct: 0.05, TakeProfitPct: 0.15}, nil)
	m.Track("600519.SH", 100, &model.Order{
		Symbol:  "600519.SH",
		SLPrice: 98,
		TPPrice: 104,
	})

	r, ok := m.Record("600519.SH")
	if !ok {
		t.Fatal("record missing")
	}
	if r.StopPrice != 98 || r.TakeProfitPrice != 104 {
		t.Fatalf("record = %+v, hints should win", r)
	}
}

// 移动止损：高水位上移时止损跟着收紧，回落时止损不动
func TestTrailingStopTightensOnly(t *testing.T) {
	m := NewManager(Defaults{StopLossPct: 0.05, TrailingPct: 0.03}, nil)
	m.Track("600519.SH", 100, &model.Order{Symbol: "600519.SH"})

	// 初始止损 95
	r, _ := m.Record("600519.SH")
	if r.StopPrice != 95 {
		t.Fatalf("initial stop = %v, want 95", r.StopPrice)
	}

	// 涨到 110，高水位 110，止损推到 110*0.97=106.7
	if exit := m.Evaluate("600519.SH", 110, barTime(1)); exit != nil {
		t.Fatalf("unexpected exit %+v", exit)
	}
	r, _ = m.Record("600519.SH")
	if math.Abs(r.StopPrice-106.7) > 1e-9 {
		t.Fatalf("stop after rally = %v, want 106.7", r.StopPrice)
	}
	if r.HighWaterMark != 110 {
		t.Fatalf("hwm = %v, want 110", r.HighWaterMark)
	}

	// 回落到 108，高水位和止损都不动
	if exit := m.Evaluate("600519.SH", 108, barTime(2)); exit != nil {
		t.Fatalf("unexpected exit %+v", exit)
	}
	r, _ = m.Record("600519.SH")
	if math.Abs(r.StopPrice-106.7) > 1e-9 || r.HighWaterMark != 110 {
		t.Fatalf("stop loosened on pullback: %+v", r)
	}

	// 继续回落触发移动止损
	exit := m.Evaluate("600519.SH", 106, barTime(3))
	if exit == nil || exit.Reason != model.ExitStopLoss {
		t.Fatalf("expected trailing stop exit, got %+v", exit)
	}
}

// 移动止损推算价低于现有止损价时不采用
func TestTrailingNeverBelowFixedStop(t *testing.T) {
	m := NewManager(Defaults{TrailingPct: 0.03}, nil)
	m.Track("600519.SH", 100, &model.Order{Symbol: "600519.SH", SLPrice: 99.5})

	// 101*0.97=97.97 < 99.5，止损保持 99.5
	m.Evaluate("600519.SH", 101, barTime(1))
	r, _ := m.Record("600519.SH")
	if r.StopPrice != 99.5 {
		t.Fatalf("stop = %v, want unchanged 99.5", r.StopPrice)
	}
}

func TestReleaseStopsTracking(t *testing.T) {
	m := NewManager(Defaults{StopLossPct: 0.05}, nil)
	m.Track("600519.SH", 100, &model.Order{Symbol: "600519.SH"})
	m.Release("600519.SH")

	if exit := m.Evaluate("600519.SH", 1, barTime(1)); exit != nil {
		t.Fatalf("released symbol should not produce exits, got %+v", exit)
	}
	if syms := m.TrackedSymbols(); len(syms) != 0 {
		t.Fatalf("tracked = %v, want empty", syms)
	}
}
