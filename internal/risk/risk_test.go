package risk

import (
	"testing"
	"time"

	"quantflow/internal/model"
)

// 测试用的账户视图
type fakeAccount struct {
	total    float64
	position map[string]float64
	exposure float64
}

func (a *fakeAccount) TotalValue() float64 { return a.total }
func (a *fakeAccount) PositionValue(symbol string) float64 {
	return a.position[symbol]
}
func (a *fakeAccount) ExposureValue() float64 { return a.exposure }

func testSignal(kind model.SignalKind) *model.Signal {
	return &model.Signal{
		Timestamp: time.Date(2023, 6, 1, 15, 0, 0, 0, time.UTC),
		Symbol:    "600519.SH",
		Kind:      kind,
		Strength:  1,
	}
}

// 卖出信号一律放行，哪怕所有阈值都已触发
func TestSellAlwaysPasses(t *testing.T) {
	m := NewManager(Limits{
		MaxPositionRatio: 0.01,
		MaxExposureRatio: 0.01,
		MaxDrawdownLimit: 0.01,
	}, 100000, nil)

	acct := &fakeAccount{
		total:    50000, // 距峰值已回撤 50%
		position: map[string]float64{"600519.SH": 49000},
		exposure: 49000,
	}
	ok, reasons := m.Validate(testSignal(model.SignalSell), acct)
	if !ok {
		t.Fatalf("sell rejected: %v", reasons)
	}
}

func TestPositionRatioCheck(t *testing.T) {
	m := NewManager(Limits{MaxPositionRatio: 0.1}, 100000, nil)

	acct := &fakeAccount{
		total:    100000,
		position: map[string]float64{"600519.SH": 5000},
	}
	if ok, reasons := m.Validate(testSignal(model.SignalBuy), acct); !ok {
		t.Fatalf("below limit should pass: %v", reasons)
	}

	acct.position["600519.SH"] = 10000
	if ok, _ := m.Validate(testSignal(model.SignalBuy), acct); ok {
		t.Fatal("at limit should be rejected")
	}
}

func TestExposureCheck(t *testing.T) {
	m := NewManager(Limits{MaxExposureRatio: 0.8}, 100000, nil)

	acct := &fakeAccount{total: 100000, exposure: 70000}
	if ok, reasons := m.Validate(testSignal(model.SignalBuy), acct); !ok {
		t.Fatalf("below limit should pass: %v", reasons)
	}

	acct.exposure = 85000
	if ok, _ := m.Validate(testSignal(model.SignalBuy), acct); ok {
		t.Fatal("exposure over limit should be rejected")
	}
}

// 峰值只增不减，回撤超限后拒绝开仓
func TestDrawdownCheck(t *testing.T) {
	m := NewManager(Limits{MaxDrawdownLimit: 0.2}, 100000, nil)

	// 先把峰值推到 120000
	acct := &fakeAccount{total: 120000}
	if ok, _ := m.Validate(testSignal(model.SignalBuy), acct); !ok {
		t.Fatal("uptrend should pass")
	}
	if m.PeakCapital() != 120000 {
		t.Fatalf("peak = %v, want 120000", m.PeakCapital())
	}

	// 回落到 95000，距峰值回撤 20.8%
	acct.total = 95000
	if ok, _ := m.Validate(testSignal(model.SignalBuy), acct); ok {
		t.Fatal("drawdown over limit should be rejected")
	}
	// 峰值不会因回落而下降
	if m.PeakCapital() != 120000 {
		t.Fatalf("peak dropped to %v", m.PeakCapital())
	}
}

// 连续亏损达到上限后拒绝，盈利一笔即清零
func TestConsecutiveLossesCheck(t *testing.T) {
	m := NewManager(Limits{MaxConsecutiveLosses: 3}, 100000, nil)
	acct := &fakeAccount{total: 100000}
	day := time.Date(2023, 6, 1, 15, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		m.RecordTradeResult("600519.SH", -100, day, 100000)
	}
	if m.ConsecutiveLosses("600519.SH") != 3 {
		t.Fatalf("consec = %d, want 3", m.ConsecutiveLosses("600519.SH"))
	}
	if ok, _ := m.Validate(testSignal(model.SignalBuy), acct); ok {
		t.Fatal("3 consecutive losses should be rejected")
	}

	// 别的标的不受影响
	other := testSignal(model.SignalBuy)
	other.Symbol = "000001.SZ"
	if ok, reasons := m.Validate(other, acct); !ok {
		t.Fatalf("other symbol should pass: %v", reasons)
	}

	// 盈利清零计数
	m.RecordTradeResult("600519.SH", 50, day, 100000)
	if m.ConsecutiveLosses("600519.SH") != 0 {
		t.Fatalf("consec after win = %d, want 0", m.ConsecutiveLosses("600519.SH"))
	}
	if ok, reasons := m.Validate(testSignal(model.SignalBuy), acct); !ok {
		t.Fatalf("should pass after win: %v", reasons)
	}
}

// 当日亏损超限当天拒绝开仓，次日恢复
func TestDailyLossCheck(t *testing.T) {
	m := NewManager(Limits{DailyLossLimit: 0.05}, 100000, nil)
	acct := &fakeAccount{total: 100000}
	day1 := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)

	m.RecordTradeResult("600519.SH", -6000, day1, 94000)

	sig := testSignal(model.SignalBuy)
	sig.Timestamp = day1
	if ok, _ := m.Validate(sig, acct); ok {
		t.Fatal("daily loss over limit should be rejected")
	}

	// 次日计数独立
	sig.Timestamp = day1.AddDate(0, 0, 1)
	if ok, reasons := m.Validate(sig, acct); !ok {
		t.Fatalf("next day should pass: %v", reasons)
	}
}

// 各项检查独立，一次返回全部不通过的原因
func TestMultipleReasons(t *testing.T) {
	m := NewManager(Limits{
		MaxPositionRatio: 0.1,
		MaxExposureRatio: 0.5,
	}, 100000, nil)

	acct := &fakeAccount{
		total:    100000,
		position: map[string]float64{"600519.SH": 20000},
		exposure: 60000,
	}
	ok, reasons := m.Validate(testSignal(model.SignalBuy), acct)
	if ok {
		t.Fatal("should be rejected")
	}
	if len(reasons) != 2 {
		t.Fatalf("reasons = %v, want both checks reported", reasons)
	}
}
