// Package risk 信号准入风控。只回答“这笔交易允不允许”，
// 不关心“这笔交易开多大”——仓位大小是账本的事，两边可以独立演进。
package risk

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"quantflow/internal/model"
)

// Limits 风控阈值，全部为小数比例（0.2 表示 20%）
type Limits struct {
	MaxPositionRatio     float64 // 单标的持仓市值占总资产比例上限
	MaxExposureRatio     float64 // 全部持仓市值占总资产比例上限
	MaxDrawdownLimit     float64 // 距峰值资产回撤上限
	DailyLossLimit       float64 // 单日亏损占总资产比例上限
	MaxConsecutiveLosses int     // 单标的连续亏损次数上限
}

// Account 风控需要观察的账户视图，由账本实现
type Account interface {
	TotalValue() float64
	PositionValue(symbol string) float64
	ExposureValue() float64
}

// Manager 有状态的风控管理器：
// 峰值资产（只增不减的高水位）、各标的连续亏损计数、按自然日累计的盈亏。
type Manager struct {
	limits Limits

	peakCapital  float64
	consecLosses map[string]int
	dailyPnl     map[string]float64 // key: 2006-01-02

	logger *zap.Logger
}

func NewManager(limits Limits, initialCapital float64, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		limits:       limits,
		peakCapital:  initialCapital,
		consecLosses: make(map[string]int),
		dailyPnl:     make(map[string]float64),
		logger:       logger,
	}
}

// Validate 检查一个信号是否允许执行，各项检查相互独立，返回全部不通过的原因。
// 卖出信号（减仓）一律放行，准入检查只约束买入。
func (m *Manager) Validate(sig *model.Signal, acct Account) (bool, []string) {
	if sig.Kind == model.SignalSell {
		return true, nil
	}

	total := acct.TotalValue()
	if total > m.peakCapital {
		m.peakCapital = total
	}

	var reasons []string

	// 单标的仓位比例
	if m.limits.MaxPositionRatio > 0 && total > 0 {
		if acct.PositionValue(sig.Symbol)/total >= m.limits.MaxPositionRatio {
			reasons = append(reasons, fmt.Sprintf("position ratio of %s exceeds %.2f", sig.Symbol, m.limits.MaxPositionRatio))
		}
	}

	// 总敞口
	if m.limits.MaxExposureRatio > 0 && total > 0 {
		if acct.ExposureValue()/total >= m.limits.MaxExposureRatio {
			reasons = append(reasons, fmt.Sprintf("total exposure exceeds %.2f", m.limits.MaxExposureRatio))
		}
	}

	// 距峰值回撤
	if m.limits.MaxDrawdownLimit > 0 && m.peakCapital > 0 {
		dd := (m.peakCapital - total) / m.peakCapital
		if dd >= m.limits.MaxDrawdownLimit {
			reasons = append(reasons, fmt.Sprintf("drawdown %.2f%% from peak exceeds limit", dd*100))
		}
	}

	// 连续亏损
	if m.limits.MaxConsecutiveLosses > 0 {
		if m.consecLosses[sig.Symbol] >= m.limits.MaxConsecutiveLosses {
			reasons = append(reasons, fmt.Sprintf("%s has %d consecutive losses", sig.Symbol, m.consecLosses[sig.Symbol]))
		}
	}

	// 当日亏损
	if m.limits.DailyLossLimit > 0 && total > 0 {
		day := sig.Timestamp.Format("2006-01-02")
		if m.dailyPnl[day]/total <= -m.limits.DailyLossLimit {
			reasons = append(reasons, fmt.Sprintf("daily loss exceeds %.2f%%", m.limits.DailyLossLimit*100))
		}
	}

	if len(reasons) > 0 {
		m.logger.Debug("signal rejected by risk manager",
			zap.String("symbol", sig.Symbol),
			zap.String("kind", string(sig.Kind)),
			zap.Strings("reasons", reasons))
		return false, reasons
	}
	return true, nil
}

// RecordTradeResult 每笔已实现盈亏结算后调用：
// 更新当日盈亏累计、连续亏损计数（盈利即清零）和峰值资产。
func (m *Manager) RecordTradeResult(symbol string, pnl float64, when time.Time, capital float64) {
	day := when.Format("2006-01-02")
	m.dailyPnl[day] += pnl

	if pnl < 0 {
		m.consecLosses[symbol]++
	} else if pnl > 0 {
		m.consecLosses[symbol] = 0
	}

	if capital > m.peakCapital {
		m.peakCapital = capital
	}
}

// PeakCapital 当前高水位
func (m *Manager) PeakCapital() float64 { return m.peakCapital }

// ConsecutiveLosses 某标的当前连续亏损次数
func (m *Manager) ConsecutiveLosses(symbol string) int { return m.consecLosses[symbol] }
