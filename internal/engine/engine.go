// Package engine 回测编排器：驱动每根K线的
// 保护性离场 → K线事件 → 信号 → 委托 → 成交级联，
// 管理生命周期并在收尾时汇总绩效。
package engine

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quantflow/conf"
	"quantflow/internal/analytics"
	"quantflow/internal/event"
	"quantflow/internal/exchange"
	"quantflow/internal/feed"
	"quantflow/internal/model"
	"quantflow/internal/portfolio"
	"quantflow/internal/risk"
	"quantflow/internal/stoploss"
	"quantflow/internal/strategy"
)

type State string

const (
	StateCreated    State = "CREATED"
	StateDataLoaded State = "DATA_LOADED"
	StateRunning    State = "RUNNING"
	StateFinished   State = "FINISHED"
)

// 初始化失败是致命的，直接让 RunBacktest 返回错误
var ErrNoDataFeed = errors.New("no data feed configured")

type Engine struct {
	cfg  *conf.Config
	feed feed.DataFeed

	ctx    *Context
	klines []*model.Kline

	state       State
	initialized bool
	stopped     atomic.Bool

	// 每个标的最近一次见到的收盘价，收尾强平用
	lastPrice map[string]float64

	runID  string
	logger *zap.Logger
}

// New 用数据源和配置构造引擎，组件可以在 RunBacktest 前注入替换
func New(dataFeed feed.DataFeed, cfg *conf.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		feed:      dataFeed,
		state:     StateCreated,
		lastPrice: make(map[string]float64),
		runID:     uuid.NewString(),
		logger:    logger,
		ctx:       &Context{Logger: logger},
	}
}

func (e *Engine) State() State { return e.state }

func (e *Engine) RunID() string { return e.runID }

func (e *Engine) SetStrategy(s strategy.Strategy) { e.ctx.Strategy = s }

func (e *Engine) SetRiskManager(m *risk.Manager) { e.ctx.Risk = m }

func (e *Engine) SetExecutionEngine(ex exchange.OrderExecutor) { e.ctx.Executor = ex }

// LoadData 从数据源一次性取出全部K线。数据源缺失是致命错误；
// 数据源存在但没有K线不是错误，回测会直接产出空结果。
func (e *Engine) LoadData() error {
	if e.feed == nil {
		return ErrNoDataFeed
	}
	e.klines = e.feed.All()
	if max := e.cfg.Backtest.MaxBars; max > 0 && len(e.klines) > max {
		e.klines = e.klines[:max]
	}
	e.state = StateDataLoaded
	e.logger.Info("data loaded", zap.Int("bars", len(e.klines)))
	return nil
}

// InitializeComponents 搭好级联：没被注入的组件用配置构造默认实现
func (e *Engine) InitializeComponents() error {
	c := e.ctx
	bt, rk := e.cfg.Backtest, e.cfg.Risk

	pf, err := portfolio.NewPortfolio(portfolio.Options{
		InitialCapital:   bt.InitialCapital,
		CommissionRate:   rk.CommissionRate,
		MaxPositionRatio: rk.MaxPositionRatio,
		LotSize:          bt.LotSize,
		MaxTradeCash:     rk.MaxTradeCash,
	}, e.logger)
	if err != nil {
		return fmt.Errorf("init portfolio: %w", err)
	}
	c.Portfolio = pf

	if c.Risk == nil {
		c.Risk = risk.NewManager(risk.Limits{
			MaxPositionRatio:     rk.MaxPositionRatio,
			MaxExposureRatio:     rk.MaxExposureRatio,
			MaxDrawdownLimit:     rk.MaxDrawdownLimit,
			DailyLossLimit:       rk.DailyLossLimit,
			MaxConsecutiveLosses: rk.MaxConsecutiveLosses,
		}, bt.InitialCapital, e.logger)
	}
	if c.Executor == nil {
		ex, err := exchange.NewSimulatedOrderExecutor(rk.CommissionRate, rk.SlippageRate, e.logger)
		if err != nil {
			return fmt.Errorf("init executor: %w", err)
		}
		c.Executor = ex
	}
	c.StopLoss = stoploss.NewManager(stoploss.Defaults{
		StopLossPct:   rk.StopLoss,
		TakeProfitPct: rk.TakeProfit,
		TrailingPct:   rk.TrailingStop,
	}, e.logger)
	c.Analytics = analytics.New(e.logger)
	c.Dispatcher = event.NewDispatcher(e.logger)
	registerProcessors(c)

	if c.Strategy != nil {
		c.Strategy.Initialize()
	}
	e.initialized = true
	return nil
}

// Stop 协作式停止：标志位在每根K线边界检查一次。
// 一根K线的级联是同步且有界的，不需要中途打断。
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// RunBacktest 跑完整个回测并返回结果。
// 主循环开始后任何单根K线的故障都不会让它返回错误：
// 除非初始化失败，否则一定产出 Result。
func (e *Engine) RunBacktest() (*model.Result, error) {
	if e.state == StateCreated {
		if err := e.LoadData(); err != nil {
			return nil, err
		}
	}
	if !e.initialized {
		if err := e.InitializeComponents(); err != nil {
			return nil, err
		}
	}

	e.state = StateRunning
	e.logger.Info("backtest started",
		zap.String("run_id", e.runID),
		zap.String("symbol", e.cfg.Backtest.Symbol),
		zap.Int("bars", len(e.klines)))

	for _, k := range e.klines {
		if e.stopped.Load() {
			e.logger.Info("backtest stopped by request")
			break
		}
		e.processBar(k)
	}

	e.forceCloseAll()
	result := e.buildResult()
	e.state = StateFinished
	e.logger.Info("backtest finished",
		zap.String("run_id", e.runID),
		zap.Float64("final_capital", result.FinalCapital),
		zap.Int("trades", result.TotalTrades))
	return result, nil
}

// processBar 单根K线的处理。这里是故障隔离边界：
// 一根坏K线只会丢掉这一根的处理，用上一个完好状态继续下一根。
func (e *Engine) processBar(k *model.Kline) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic while processing bar, skipping",
				zap.Time("timestamp", k.Timestamp),
				zap.String("symbol", k.Symbol),
				zap.Any("panic", r))
		}
	}()

	e.ctx.CurrentKline = k
	e.lastPrice[k.Symbol] = k.Close
	e.ctx.Portfolio.UpdateMarketPrice(k.Symbol, k.Close)

	// 保护性离场先于本根K线的新信号执行
	if exit := e.ctx.StopLoss.Evaluate(k.Symbol, k.Close, k.Timestamp); exit != nil {
		e.executeExit(exit)
	}

	if err := e.ctx.Dispatcher.Publish(event.KlineEvent{Kline: k}); err != nil {
		e.logger.Error("bar cascade failed",
			zap.Time("timestamp", k.Timestamp),
			zap.Error(err))
	}

	e.ctx.Analytics.OnEquity(k.Timestamp, e.ctx.Portfolio.TotalValue())
}

// executeExit 把离场信号转成市价卖单，直接从委托事件进入级联，
// 不再经过风控——保护性离场永远不该被准入规则拦下
func (e *Engine) executeExit(exit *model.ExitSignal) {
	sig := &model.Signal{
		Timestamp: exit.Timestamp,
		Symbol:    exit.Symbol,
		Kind:      model.SignalSell,
		Strength:  1,
		Strategy:  "stoploss",
		Comment:   string(exit.Reason),
	}
	order, err := e.ctx.Portfolio.ProcessSignal(sig, exit.Price)
	if err != nil {
		e.logger.Warn("protective exit rejected by portfolio",
			zap.String("symbol", exit.Symbol), zap.Error(err))
		return
	}
	e.logger.Debug("protective exit triggered",
		zap.String("symbol", exit.Symbol),
		zap.String("reason", string(exit.Reason)),
		zap.Float64("price", exit.Price))
	if err := e.ctx.Dispatcher.Publish(event.OrderEvent{Order: order}); err != nil {
		e.logger.Error("protective exit cascade failed", zap.Error(err))
	}
}

// forceCloseAll 收尾时按最后见到的收盘价强平所有持仓
func (e *Engine) forceCloseAll() {
	for _, symbol := range e.ctx.Portfolio.OpenSymbols() {
		pos, ok := e.ctx.Portfolio.Position(symbol)
		if !ok {
			continue
		}
		price := e.lastPrice[symbol]
		if price <= 0 {
			price = pos.MarketPrice
		}
		if price <= 0 {
			continue
		}
		sig := &model.Signal{
			Timestamp: pos.OpenTime,
			Symbol:    symbol,
			Kind:      model.SignalSell,
			Strength:  1,
			Strategy:  "engine",
			Comment:   "force close at end of data",
		}
		if len(e.klines) > 0 {
			sig.Timestamp = e.klines[len(e.klines)-1].Timestamp
		}
		order, err := e.ctx.Portfolio.ProcessSignal(sig, price)
		if err != nil {
			e.logger.Warn("force close rejected", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		if err := e.ctx.Dispatcher.Publish(event.OrderEvent{Order: order}); err != nil {
			e.logger.Error("force close cascade failed", zap.Error(err))
		}
	}
}

func (e *Engine) buildResult() *model.Result {
	r := &model.Result{
		RunID:          e.runID,
		Symbol:         e.cfg.Backtest.Symbol,
		InitialCapital: e.ctx.Portfolio.InitialCapital(),
		FinalCapital:   e.ctx.Portfolio.TotalValue(),
	}
	if e.ctx.Strategy != nil {
		r.Strategy = e.ctx.Strategy.Name()
	}
	if len(e.klines) > 0 {
		r.StartAt = e.klines[0].Timestamp
		r.EndAt = e.klines[len(e.klines)-1].Timestamp
	}
	r.TotalCommission = e.ctx.Portfolio.TotalCommission()
	r.LedgerRealizedPnl = e.ctx.Portfolio.RealizedPnl()

	e.ctx.Analytics.Compute(r, e.cfg.Risk.RiskFreeRate)
	return r
}
