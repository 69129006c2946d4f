// Package portfolio 资金与持仓账本，现金和仓位状态的唯一写入者。
// 其它组件只通过只读访问器观察持仓，绝不直接改写。
package portfolio

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"quantflow/internal/model"
)

var (
	// 信号被账本拒绝属于正常控制流，不是故障
	ErrPositionExists   = errors.New("symbol already has an open position")
	ErrNoPosition       = errors.New("no open position for symbol")
	ErrInsufficientCash = errors.New("insufficient cash for order")
	ErrZeroQuantity     = errors.New("sized quantity is zero")
)

type Options struct {
	InitialCapital   float64
	CommissionRate   float64
	MaxPositionRatio float64 // 单笔开仓动用现金的比例上限
	LotSize          float64 // 最小交易单位
	MaxTradeCash     float64 // 单笔委托金额上限，0 不限制
}

// Portfolio 账本。单线程使用（回测循环是全同步的），不加锁。
type Portfolio struct {
	cash      float64
	initial   float64
	positions map[string]*model.Position

	opts   Options
	node   *snowflake.Node // 委托单 ID
	logger *zap.Logger

	realizedPnl     float64 // 账本口径累计已实现盈亏
	totalCommission float64
}

func NewPortfolio(opts Options, logger *zap.Logger) (*Portfolio, error) {
	if opts.InitialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %v", opts.InitialCapital)
	}
	if opts.LotSize <= 0 {
		opts.LotSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node: %w", err)
	}
	return &Portfolio{
		cash:      opts.InitialCapital,
		initial:   opts.InitialCapital,
		positions: make(map[string]*model.Position),
		opts:      opts,
		node:      node,
		logger:    logger,
	}, nil
}

// ProcessSignal 把策略信号换算成委托单。
// 买入信号：已有持仓、现金不足或数量取整后为零时拒绝；
// 卖出信号：无持仓时拒绝，有持仓时全部平掉。
// 拒绝通过 error 返回，调用方按 debug 级别记录即可。
func (p *Portfolio) ProcessSignal(sig *model.Signal, price float64) (*model.Order, error) {
	if price <= 0 {
		return nil, fmt.Errorf("invalid reference price %v", price)
	}

	switch sig.Kind {
	case model.SignalBuy:
		if _, ok := p.positions[sig.Symbol]; ok {
			return nil, ErrPositionExists
		}
		qty := p.sizeBuy(sig.Strength, price)
		if qty <= 0 {
			return nil, ErrZeroQuantity
		}
		// 含手续费的资金校验
		required := qty * price * (1 + p.opts.CommissionRate)
		if required > p.cash {
			return nil, ErrInsufficientCash
		}
		return p.newOrder(sig, model.Buy, price, qty), nil

	case model.SignalSell:
		pos, ok := p.positions[sig.Symbol]
		if !ok {
			return nil, ErrNoPosition
		}
		// 卖出永远是全部平仓
		return p.newOrder(sig, model.Sell, price, pos.Quantity), nil

	default:
		return nil, fmt.Errorf("unknown signal kind %q", sig.Kind)
	}
}

// sizeBuy 数量 = floor(现金 × 仓位比例 × 信号强度 / 价格)，
// 向下取整到最小交易单位，再受单笔金额上限约束。
func (p *Portfolio) sizeBuy(strength, price float64) float64 {
	budget := p.cash * p.opts.MaxPositionRatio * strength
	if p.opts.MaxTradeCash > 0 && budget > p.opts.MaxTradeCash {
		budget = p.opts.MaxTradeCash
	}
	qty := math.Floor(budget / price)
	lot := p.opts.LotSize
	return math.Floor(qty/lot) * lot
}

func (p *Portfolio) newOrder(sig *model.Signal, side model.OrderSide, price, qty float64) *model.Order {
	return &model.Order{
		ID:          p.node.Generate().Int64(),
		Symbol:      sig.Symbol,
		Side:        side,
		Price:       price,
		Quantity:    qty,
		OrderType:   model.Market,
		Strategy:    sig.Strategy,
		Comment:     sig.Comment,
		SLPrice:     sig.SLPrice,
		TPPrice:     sig.TPPrice,
		TrailingPct: sig.TrailingPct,
		Timestamp:   sig.Timestamp,
	}
}

// ProcessFill 应用一笔成交。
// 买入：现金减少 价格×数量+手续费，按加权平均更新持仓成本；
// 卖出：现金增加 价格×数量-手续费，按平均成本结算已实现盈亏，
// 返回这笔成交实现的盈亏和持仓是否已清空。
func (p *Portfolio) ProcessFill(fill *model.Fill) (realized float64, closed bool, err error) {
	if fill == nil || fill.Quantity <= 0 {
		return 0, false, errors.New("invalid fill")
	}
	p.totalCommission += fill.Commission

	switch fill.Side {
	case model.Buy:
		cost := fill.Price*fill.Quantity + fill.Commission
		p.cash -= cost

		pos, ok := p.positions[fill.Symbol]
		if !ok {
			pos = &model.Position{
				Symbol:   fill.Symbol,
				OpenTime: fill.Timestamp,
			}
			p.positions[fill.Symbol] = pos
		}
		// 加权平均成本
		newQty := pos.Quantity + fill.Quantity
		pos.AvgCost = (pos.AvgCost*pos.Quantity + fill.Price*fill.Quantity) / newQty
		pos.Quantity = newQty
		pos.Fills = append(pos.Fills, fill)
		pos.UpdatePrice(fill.Price)
		return 0, false, nil

	case model.Sell:
		pos, ok := p.positions[fill.Symbol]
		if !ok {
			return 0, false, fmt.Errorf("sell fill for %s without position", fill.Symbol)
		}
		if fill.Quantity > pos.Quantity+1e-9 {
			return 0, false, fmt.Errorf("sell fill quantity %v exceeds position %v", fill.Quantity, pos.Quantity)
		}

		p.cash += fill.Price*fill.Quantity - fill.Commission
		realized = (fill.Price-pos.AvgCost)*fill.Quantity - fill.Commission
		pos.RealizedPnl += realized
		p.realizedPnl += realized

		pos.Quantity -= fill.Quantity
		pos.Fills = append(pos.Fills, fill)
		if pos.Quantity <= 1e-9 {
			delete(p.positions, fill.Symbol)
			return realized, true, nil
		}
		pos.UpdatePrice(fill.Price)
		return realized, false, nil

	default:
		return 0, false, fmt.Errorf("unknown fill side %q", fill.Side)
	}
}

// UpdateMarketPrice 按最新价重算某标的的市值和浮动盈亏，幂等
func (p *Portfolio) UpdateMarketPrice(symbol string, price float64) {
	if pos, ok := p.positions[symbol]; ok {
		pos.UpdatePrice(price)
	}
}

// TotalValue 总资产 = 现金 + 全部持仓市值，永远现算，不单独维护
func (p *Portfolio) TotalValue() float64 {
	total := p.cash
	for _, pos := range p.positions {
		total += pos.MarketValue
	}
	return total
}

func (p *Portfolio) Cash() float64 { return p.cash }

func (p *Portfolio) InitialCapital() float64 { return p.initial }

func (p *Portfolio) RealizedPnl() float64 { return p.realizedPnl }

func (p *Portfolio) TotalCommission() float64 { return p.totalCommission }

// Position 返回持仓的快照副本，调用方改不到账本内部状态
func (p *Portfolio) Position(symbol string) (model.Position, bool) {
	pos, ok := p.positions[symbol]
	if !ok {
		return model.Position{}, false
	}
	return *pos, true
}

// OpenSymbols 当前有持仓的标的，按字典序返回，保证遍历顺序确定
func (p *Portfolio) OpenSymbols() []string {
	symbols := make([]string, 0, len(p.positions))
	for s := range p.positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// PositionValue 某标的的持仓市值，无持仓返回 0
func (p *Portfolio) PositionValue(symbol string) float64 {
	if pos, ok := p.positions[symbol]; ok {
		return pos.MarketValue
	}
	return 0
}

// ExposureValue 全部持仓市值之和
func (p *Portfolio) ExposureValue() float64 {
	var sum float64
	for _, pos := range p.positions {
		sum += pos.MarketValue
	}
	return sum
}

// UnrealizedPnl 全部持仓的浮动盈亏之和
func (p *Portfolio) UnrealizedPnl() float64 {
	var sum float64
	for _, pos := range p.positions {
		sum += pos.UnrealizedPnl
	}
	return sum
}
