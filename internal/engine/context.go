package engine

import (
	"go.uber.org/zap"

	"quantflow/internal/analytics"
	"quantflow/internal/event"
	"quantflow/internal/exchange"
	"quantflow/internal/model"
	"quantflow/internal/portfolio"
	"quantflow/internal/risk"
	"quantflow/internal/stoploss"
	"quantflow/internal/strategy"
)

// Context 级联处理所需的全部组件，显式传给各个处理函数。
// 不用闭包隐式捕获引擎状态，依赖关系一眼可见。
type Context struct {
	Dispatcher *event.Dispatcher
	Portfolio  *portfolio.Portfolio
	Risk       *risk.Manager
	StopLoss   *stoploss.Manager
	Analytics  *analytics.Analytics
	Executor   exchange.OrderExecutor
	Strategy   strategy.Strategy
	Logger     *zap.Logger

	// 正在处理的K线，引擎在每根K线开始时更新。
	// 整条级联是同步的，处理期间它不会变。
	CurrentKline *model.Kline
}

// onKline K线事件：交给策略，把产生的信号逐个发布出去
func onKline(c *Context, e event.Event) error {
	k := e.(event.KlineEvent).Kline
	if c.Strategy == nil {
		return nil
	}
	for _, sig := range c.Strategy.OnKline(k) {
		if err := c.Dispatcher.Publish(event.SignalEvent{Signal: sig}); err != nil {
			return err
		}
	}
	return nil
}

// onSignal 信号事件：先过风控，再由账本换算成委托单。
// 风控拒绝和账本拒绝都是正常控制流，debug 级别记录后丢弃。
func onSignal(c *Context, e event.Event) error {
	sig := e.(event.SignalEvent).Signal

	if ok, _ := c.Risk.Validate(sig, c.Portfolio); !ok {
		return nil
	}

	order, err := c.Portfolio.ProcessSignal(sig, c.CurrentKline.Close)
	if err != nil {
		c.Logger.Debug("signal rejected by portfolio",
			zap.String("symbol", sig.Symbol),
			zap.String("kind", string(sig.Kind)),
			zap.Error(err))
		return nil
	}
	return c.Dispatcher.Publish(event.OrderEvent{Order: order})
}

// onOrder 委托事件：交给撮合器。没有成交不重试；
// 买入成交后登记止损/止盈保护状态。
func onOrder(c *Context, e event.Event) error {
	order := e.(event.OrderEvent).Order

	fill, err := c.Executor.ExecuteOrder(order)
	if err != nil {
		c.Logger.Error("order execution failed",
			zap.Int64("order_id", order.ID),
			zap.String("symbol", order.Symbol),
			zap.Error(err))
		return nil
	}
	if fill == nil {
		c.Logger.Debug("order not filled this bar",
			zap.Int64("order_id", order.ID),
			zap.String("symbol", order.Symbol))
		return nil
	}

	if err := c.Dispatcher.Publish(event.FillEvent{Fill: fill}); err != nil {
		return err
	}
	if fill.Side == model.Buy {
		c.StopLoss.Track(fill.Symbol, fill.Price, order)
	}
	return nil
}

// onFill 成交事件：唯一改变账本状态的地方。
// 卖出实现的盈亏回灌给风控，清仓后释放保护状态。
func onFill(c *Context, e event.Event) error {
	fill := e.(event.FillEvent).Fill

	realized, closed, err := c.Portfolio.ProcessFill(fill)
	if err != nil {
		return err
	}
	c.Analytics.OnFill(fill)

	if fill.Side == model.Sell {
		c.Risk.RecordTradeResult(fill.Symbol, realized, fill.Timestamp, c.Portfolio.TotalValue())
		if closed {
			c.StopLoss.Release(fill.Symbol)
		}
	}
	return nil
}

// registerProcessors 把级联处理函数挂到分发器上
func registerProcessors(c *Context) {
	c.Dispatcher.Register(event.KindKline, func(e event.Event) error { return onKline(c, e) })
	c.Dispatcher.Register(event.KindSignal, func(e event.Event) error { return onSignal(c, e) })
	c.Dispatcher.Register(event.KindOrder, func(e event.Event) error { return onOrder(c, e) })
	c.Dispatcher.Register(event.KindFill, func(e event.Event) error { return onFill(c, e) })
}
